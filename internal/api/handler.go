package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/device"
	"github.com/SoumenSample/NetraVaani/internal/interpret"
	"github.com/SoumenSample/NetraVaani/internal/light"
	"github.com/SoumenSample/NetraVaani/internal/notify"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	db         *gorm.DB
	bus        *bus.Bus
	tracker    *device.Tracker
	mirror     *light.Mirror
	dispatcher *interpret.Dispatcher
	webhook    *notify.WebhookClient
	webpush    *webpush.Options

	now func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(db *gorm.DB, b *bus.Bus, tracker *device.Tracker, mirror *light.Mirror, dispatcher *interpret.Dispatcher, webhook *notify.WebhookClient, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		db:         db,
		bus:        b,
		tracker:    tracker,
		mirror:     mirror,
		dispatcher: dispatcher,
		webhook:    webhook,
		webpush:    webpushOptions,
		now:        time.Now,
	}
}
