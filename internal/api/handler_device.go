package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

type heartbeatRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	// TS is the device-reported time in milliseconds since epoch.
	TS      *int64 `json:"ts"`
	RSSI    *int   `json:"rssi"`
	Battery *int   `json:"battery"`
}

// PostHeartbeat ingests a periodic liveness report from the headset.
func (h *Handler) PostHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}

	var reported *time.Time
	if req.TS != nil {
		t := time.UnixMilli(*req.TS)
		reported = &t
	}

	dev := h.tracker.IngestHeartbeat(req.DeviceID, reported, req.RSSI, req.Battery, h.now())
	c.JSON(http.StatusOK, gin.H{"success": true, "device": dev})
}

type blinkRequest struct {
	DeviceID  string     `json:"deviceId" binding:"required"`
	Count     *int       `json:"count"`
	Timestamp *time.Time `json:"timestamp"`
}

// BlinkPayload is broadcast on the blink topic and echoed to the caller.
type BlinkPayload struct {
	DeviceID  string    `json:"deviceId"`
	Type      string    `json:"type"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// BlinkCountPayload is broadcast on the blinkCount topic and echoed to
// the caller.
type BlinkCountPayload struct {
	DeviceID   string    `json:"deviceId"`
	BlinkCount int       `json:"blinkCount"`
	Timestamp  time.Time `json:"timestamp"`
}

// PostBlink ingests a raw blink signal. The count defaults to one and is
// deliberately not range checked here; the interpreters discard what they
// cannot use. Presence is untouched: a blink is not a heartbeat.
func (h *Handler) PostBlink(c *gin.Context) {
	var req blinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}

	count := 1
	if req.Count != nil {
		count = *req.Count
	}
	now := h.now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	event := BlinkPayload{DeviceID: req.DeviceID, Type: "blink", Count: count, Timestamp: ts}
	h.bus.Publish(bus.TopicBlink, event)
	h.dispatcher.Dispatch(req.DeviceID, count, now)

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

type blinkCountRequest struct {
	DeviceID   string     `json:"deviceId" binding:"required"`
	BlinkCount *int       `json:"blinkCount" binding:"required"`
	Timestamp  *time.Time `json:"timestamp"`
}

// PostBlinkCount ingests a debounced blink count from the headset firmware.
// Unlike the raw blink path, the count must be an integer between 1 and 10.
func (h *Handler) PostBlinkCount(c *gin.Context) {
	var req blinkCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId and blinkCount are required"})
		return
	}
	if !gesture.Valid(*req.BlinkCount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blinkCount must be an integer between 1 and 10"})
		return
	}
	now := h.now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	data := BlinkCountPayload{DeviceID: req.DeviceID, BlinkCount: *req.BlinkCount, Timestamp: ts}
	h.bus.Publish(bus.TopicBlinkCount, data)
	h.dispatcher.Dispatch(req.DeviceID, *req.BlinkCount, now)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// GetDevices returns the tracked device snapshot.
func (h *Handler) GetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.tracker.Snapshot()})
}
