package notify

import (
	"context"
	"log"
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/model"
)

// Dispatcher fans a single alert out to every caretaker channel: the live
// event bus, the web push pool, and the workflow webhook.
type Dispatcher struct {
	pub     *bus.Bus
	pool    *WorkerPool
	webhook *WebhookClient
	logger  *log.Logger
}

func NewDispatcher(pub *bus.Bus, pool *WorkerPool, webhook *WebhookClient, logger *log.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, pool: pool, webhook: webhook, logger: logger}
}

// Emergency raises an emergency alert for the device.
func (d *Dispatcher) Emergency(deviceID string, at time.Time) {
	d.logger.Printf("EMERGENCY from device %s", deviceID)
	alert := Alert{Kind: model.AlertKindEmergency, DeviceID: deviceID, At: at}
	d.pub.Publish(bus.TopicEmergency, alert)
	d.fanOut(alert)
}

// Need announces a selected care item such as food or water.
func (d *Dispatcher) Need(deviceID, item string, at time.Time) {
	d.logger.Printf("need %q from device %s", item, deviceID)
	alert := Alert{Kind: model.AlertKindNeed, DeviceID: deviceID, Detail: item, At: at}
	d.fanOut(alert)
}

func (d *Dispatcher) fanOut(alert Alert) {
	if d.pool != nil {
		d.pool.Dispatch(alert)
	}
	if d.webhook != nil && d.webhook.Configured() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if _, status, err := d.webhook.Forward(ctx, alert); err != nil {
				d.logger.Printf("webhook delivery failed: %v", err)
			} else if status >= 300 {
				d.logger.Printf("webhook returned status %d", status)
			}
		}()
	}
}
