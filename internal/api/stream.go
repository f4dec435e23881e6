package api

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	ws "nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

const sseKeepalive = 30 * time.Second

// GetWS upgrades to a websocket and streams every bus event. The current
// device snapshot is replayed first so a reconnecting dashboard converges
// immediately.
func (h *Handler) GetWS(c *gin.Context) {
	conn, err := ws.Accept(c.Writer, c.Request, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("ws accept: %v", err)
		return
	}
	defer conn.Close(ws.StatusInternalError, "stream closed")

	id, events := h.bus.Subscribe(h.tracker.ReplayEvents()...)
	defer h.bus.Unsubscribe(id)

	ctx := c.Request.Context()

	// Drain client frames so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(ws.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

// GetSSE streams device status events as server-sent events, with a comment
// keepalive so proxies do not cut the idle connection.
func (h *Handler) GetSSE(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	id, events := h.bus.Subscribe(h.tracker.ReplayEvents()...)
	defer h.bus.Unsubscribe(id)

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Topic != bus.TopicStatus {
				continue
			}
			c.SSEvent(ev.Topic, ev.Payload)
			c.Writer.Flush()
		}
	}
}
