package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

// CompileHandler runs code once outside formal judging.
type CompileHandler struct {
	compileUC *usecase.CompileRunUsecase
	logger    *zap.Logger
}

// NewCompileHandler creates a new CompileHandler.
func NewCompileHandler(compileUC *usecase.CompileRunUsecase, logger *zap.Logger) *CompileHandler {
	return &CompileHandler{compileUC: compileUC, logger: logger}
}

// Run handles POST /api/v1/compile
func (h *CompileHandler) Run(c *gin.Context) {
	var req domain.CompileRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.compileUC.Execute(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "Compile and run", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
