package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/SoumenSample/NetraVaani/config"
	"github.com/SoumenSample/NetraVaani/internal/api"
	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/db"
	"github.com/SoumenSample/NetraVaani/internal/device"
	"github.com/SoumenSample/NetraVaani/internal/interpret"
	"github.com/SoumenSample/NetraVaani/internal/light"
	"github.com/SoumenSample/NetraVaani/internal/notify"
)

func main() {
	logger := log.New(os.Stdout, "netravaani ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := bus.New(64)

	tracker := device.NewTracker(eventBus, logger, cfg.Presence.HeartbeatTimeout)
	go tracker.Run(ctx, cfg.Presence.SweepInterval, cfg.Presence.RebroadcastInterval)

	var bridge light.Bridge
	if cfg.MQTT.Broker != "" {
		mqttBridge, err := light.NewMQTTBridge(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix)
		if err != nil {
			logger.Fatalf("failed to connect to MQTT broker: %v", err)
		}
		defer mqttBridge.Close()
		bridge = mqttBridge
	} else {
		logger.Println("no MQTT broker configured, light commands are recorded only")
		bridge = light.NewFakeBridge()
	}
	mirror := light.NewMirror(bridge, eventBus, logger)
	if mqttBridge, ok := bridge.(*light.MQTTBridge); ok {
		if err := mqttBridge.SubscribeStates(mirror); err != nil {
			logger.Printf("light state subscription failed: %v", err)
		}
	}

	pool := notify.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	pool.Start(ctx)

	webhook := notify.NewWebhookClient(cfg.Webhook.URL, cfg.Webhook.Timeout)
	notifier := notify.NewDispatcher(eventBus, pool, webhook, logger)

	actions := interpret.NewBusActions(eventBus, mirror, notifier, logger)
	dispatcher := interpret.NewDispatcher(actions, notifier, cfg.Interpreter, logger)
	go dispatcher.Run(ctx)

	router := api.NewRouter(cfg, gormDB, eventBus, tracker, mirror, dispatcher, webhook, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
