package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	maxStreamDuration   = 5 * time.Minute
	writeWait           = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams a submission's state until it reaches a terminal verdict.
type WebSocketHandler struct {
	getUC    *usecase.GetSubmissionUsecase
	interval time.Duration
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler polling at interval (0 for the default).
func NewWebSocketHandler(getUC *usecase.GetSubmissionUsecase, interval time.Duration, logger *zap.Logger) *WebSocketHandler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &WebSocketHandler{
		getUC:    getUC,
		interval: interval,
		logger:   logger,
	}
}

// Stream handles GET /api/v1/submissions/:id/stream (WebSocket upgrade)
func (h *WebSocketHandler) Stream(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID format"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("WebSocket connection opened", zap.String("submission_id", idStr))

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	deadline := time.After(maxStreamDuration)

	for {
		sub, err := h.getUC.Execute(c.Request.Context(), id)
		if err != nil {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteJSON(gin.H{"error": "Submission not found"})
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(sub); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}

		if sub.Status.IsTerminal() {
			h.logger.Debug("Submission reached terminal state, closing WebSocket", zap.String("submission_id", idStr))
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(sub.Status)),
				time.Now().Add(writeWait))
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-deadline:
			return
		}
	}
}
