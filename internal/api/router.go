package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/SoumenSample/NetraVaani/config"
	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/device"
	"github.com/SoumenSample/NetraVaani/internal/interpret"
	"github.com/SoumenSample/NetraVaani/internal/light"
	"github.com/SoumenSample/NetraVaani/internal/mw"
	"github.com/SoumenSample/NetraVaani/internal/notify"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, db *gorm.DB, b *bus.Bus, tracker *device.Tracker, mirror *light.Mirror, dispatcher *interpret.Dispatcher, webhook *notify.WebhookClient, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(db, b, tracker, mirror, dispatcher, webhook, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Snapshot GETs are polled by dashboards; a short cache keeps them off
	// the trackers without hiding transitions for long.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/heartbeat", handler.PostHeartbeat)
		api.POST("/blink", handler.PostBlink)
		api.POST("/blink-count", handler.PostBlinkCount)
		api.GET("/devices", caching, handler.GetDevices)

		api.POST("/light-control", handler.PostLightControl)
		api.GET("/light-status", caching, handler.GetLightStatus)

		api.POST("/alert", handler.PostAlert)
		api.POST("/emergency", handler.PostEmergency)

		api.POST("/interpreter", handler.PostInterpreter)
		api.GET("/interpreter", handler.GetInterpreter)
		api.DELETE("/interpreter/:mode", handler.DeleteInterpreter)
		api.POST("/interpreter/select", handler.PostInterpreterSelect)
		api.POST("/interpreter/press", handler.PostInterpreterPress)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.GET("/ws", handler.GetWS)
	r.GET("/sse", handler.GetSSE)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
