package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostAlert proxies an alert payload to the caretaker workflow webhook.
// Dashboards cannot call the workflow directly from the browser, so the
// backend forwards the body verbatim and relays the workflow's response.
func (h *Handler) PostAlert(c *gin.Context) {
	if h.webhook == nil || !h.webhook.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert webhook is not configured"})
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	body, status, err := h.webhook.Forward(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to reach alert webhook"})
		return
	}

	c.Data(status, "application/json", body)
}

// PostEmergency raises the emergency alert directly, for the dashboard's
// panic button. The gesture cooldown applies here too.
func (h *Handler) PostEmergency(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}

	if !h.dispatcher.TriggerEmergency(req.DeviceID, h.now()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "emergency already in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
