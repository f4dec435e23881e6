package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Presence    PresenceConfig    `yaml:"presence"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Push        PushConfig        `yaml:"push"`
	Database    DatabaseConfig    `yaml:"database"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// PresenceConfig controls heartbeat-based device liveness tracking.
type PresenceConfig struct {
	HeartbeatTimeoutSeconds    int           `yaml:"heartbeat_timeout_seconds"`
	SweepIntervalSeconds       int           `yaml:"sweep_interval_seconds"`
	RebroadcastIntervalSeconds int           `yaml:"rebroadcast_interval_seconds"`
	HeartbeatTimeout           time.Duration `yaml:"-"`
	SweepInterval              time.Duration `yaml:"-"`
	RebroadcastInterval        time.Duration `yaml:"-"`
}

// InterpreterConfig holds timing parameters for the blink interpreters.
type InterpreterConfig struct {
	EmergencyCooldownMs int           `yaml:"emergency_cooldown_ms"`
	MenuResetGraceMs    int           `yaml:"menu_reset_grace_ms"`
	MorseLetterGapMs    int           `yaml:"morse_letter_gap_ms"`
	MorseWordGapMs      int           `yaml:"morse_word_gap_ms"`
	MorseTickMs         int           `yaml:"morse_tick_ms"`
	MorseDotThresholdMs int           `yaml:"morse_dot_threshold_ms"`
	EmergencyCooldown   time.Duration `yaml:"-"`
	MenuResetGrace      time.Duration `yaml:"-"`
	MorseLetterGap      time.Duration `yaml:"-"`
	MorseWordGap        time.Duration `yaml:"-"`
	MorseTick           time.Duration `yaml:"-"`
	MorseDotThreshold   time.Duration `yaml:"-"`
}

// MQTTConfig holds the connection settings for the light actuator broker.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// WebhookConfig holds the caretaker workflow-webhook settings.
type WebhookConfig struct {
	URL            string        `yaml:"url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for caretaker web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults and derives the
// duration fields from their integer counterparts.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 2
	}

	if cfg.Presence.HeartbeatTimeoutSeconds <= 0 {
		cfg.Presence.HeartbeatTimeoutSeconds = 15
	}
	if cfg.Presence.SweepIntervalSeconds <= 0 {
		cfg.Presence.SweepIntervalSeconds = 5
	}
	if cfg.Presence.RebroadcastIntervalSeconds <= 0 {
		cfg.Presence.RebroadcastIntervalSeconds = 10
	}
	cfg.Presence.HeartbeatTimeout = time.Duration(cfg.Presence.HeartbeatTimeoutSeconds) * time.Second
	cfg.Presence.SweepInterval = time.Duration(cfg.Presence.SweepIntervalSeconds) * time.Second
	cfg.Presence.RebroadcastInterval = time.Duration(cfg.Presence.RebroadcastIntervalSeconds) * time.Second

	if cfg.Interpreter.EmergencyCooldownMs <= 0 {
		cfg.Interpreter.EmergencyCooldownMs = 5000
	}
	if cfg.Interpreter.MenuResetGraceMs <= 0 {
		cfg.Interpreter.MenuResetGraceMs = 3000
	}
	if cfg.Interpreter.MorseLetterGapMs <= 0 {
		cfg.Interpreter.MorseLetterGapMs = 6000
	}
	if cfg.Interpreter.MorseWordGapMs <= 0 {
		cfg.Interpreter.MorseWordGapMs = 8000
	}
	if cfg.Interpreter.MorseTickMs <= 0 {
		cfg.Interpreter.MorseTickMs = 200
	}
	if cfg.Interpreter.MorseDotThresholdMs <= 0 {
		cfg.Interpreter.MorseDotThresholdMs = 250
	}
	cfg.Interpreter.EmergencyCooldown = time.Duration(cfg.Interpreter.EmergencyCooldownMs) * time.Millisecond
	cfg.Interpreter.MenuResetGrace = time.Duration(cfg.Interpreter.MenuResetGraceMs) * time.Millisecond
	cfg.Interpreter.MorseLetterGap = time.Duration(cfg.Interpreter.MorseLetterGapMs) * time.Millisecond
	cfg.Interpreter.MorseWordGap = time.Duration(cfg.Interpreter.MorseWordGapMs) * time.Millisecond
	cfg.Interpreter.MorseTick = time.Duration(cfg.Interpreter.MorseTickMs) * time.Millisecond
	cfg.Interpreter.MorseDotThreshold = time.Duration(cfg.Interpreter.MorseDotThresholdMs) * time.Millisecond

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "netravaani-core"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "esp32"
	}

	if cfg.Webhook.TimeoutSeconds <= 0 {
		cfg.Webhook.TimeoutSeconds = 10
	}
	cfg.Webhook.Timeout = time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
