package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

// LanguageLister is the part of the toolchain registry the languages endpoint reads.
type LanguageLister interface {
	List() []toolchain.Spec
	Available(id string) bool
}

// LanguageHandler handles language listing requests.
type LanguageHandler struct {
	toolchains LanguageLister
}

// NewLanguageHandler creates a new LanguageHandler.
func NewLanguageHandler(toolchains LanguageLister) *LanguageHandler {
	return &LanguageHandler{toolchains: toolchains}
}

// List handles GET /api/v1/languages
func (h *LanguageHandler) List(c *gin.Context) {
	specs := h.toolchains.List()
	languages := make([]domain.LanguageInfo, 0, len(specs))
	for _, spec := range specs {
		info := domain.LanguageInfo{
			Name:      domain.Language(spec.ID),
			Display:   spec.Name,
			Version:   spec.Version,
			Available: h.toolchains.Available(spec.ID),
		}
		if spec.Compiled() {
			info.Compiler = strings.Fields(spec.CompileCmd)[0]
		}
		languages = append(languages, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"languages": languages,
	})
}
