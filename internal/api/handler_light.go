package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SoumenSample/NetraVaani/internal/light"
)

type lightControlRequest struct {
	Light   string `json:"light" binding:"required"`
	Command string `json:"command" binding:"required"`
}

// PostLightControl forwards a relay command to the actuator.
func (h *Handler) PostLightControl(c *gin.Context) {
	var req lightControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "light and command are required"})
		return
	}
	if !light.KnownLight(req.Light) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "light must be light1 or light2"})
		return
	}
	if !light.ValidCommand(req.Command) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command must be ON or OFF"})
		return
	}

	if err := h.mirror.Set(req.Light, req.Command); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send command to device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "light": req.Light, "state": req.Command})
}

// GetLightStatus returns the mirrored state of every relay.
func (h *Handler) GetLightStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.mirror.Snapshot())
}
