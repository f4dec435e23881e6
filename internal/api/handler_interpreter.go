package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type registerInterpreterRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// PostInterpreter activates the interpreter for a surface, replacing any
// previously active one.
func (h *Handler) PostInterpreter(c *gin.Context) {
	var req registerInterpreterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}
	if err := h.dispatcher.Register(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}

// DeleteInterpreter deactivates the named interpreter. Deactivating a mode
// that has already been replaced changes nothing.
func (h *Handler) DeleteInterpreter(c *gin.Context) {
	h.dispatcher.Unregister(c.Param("mode"))
	c.Status(http.StatusNoContent)
}

// GetInterpreter reports the active interpreter mode.
func (h *Handler) GetInterpreter(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.dispatcher.Active()})
}

type selectRequest struct {
	DeviceID string `json:"deviceId"`
	Index    *int   `json:"index" binding:"required"`
}

// PostInterpreterSelect performs a direct selection on the active
// interpreter, as driven by a dashboard click.
func (h *Handler) PostInterpreterSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}
	if err := h.dispatcher.Select(req.DeviceID, *req.Index, h.now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type pressRequest struct {
	DeviceID   string `json:"deviceId"`
	DurationMs *int   `json:"durationMs" binding:"required"`
}

// PostInterpreterPress feeds a timed button press to the active
// interpreter. Morse mode maps short presses to dots and long to dashes.
func (h *Handler) PostInterpreterPress(c *gin.Context) {
	var req pressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "durationMs is required"})
		return
	}
	if *req.DurationMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "durationMs must not be negative"})
		return
	}
	duration := time.Duration(*req.DurationMs) * time.Millisecond
	if err := h.dispatcher.Press(req.DeviceID, duration, h.now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
