package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL        string        `yaml:"base_url" validate:"required,url"`
		PushURL        string        `yaml:"push_url" validate:"required,url"`
		PollInterval   time.Duration `yaml:"poll_interval" validate:"gte=100ms"`
		RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	} `yaml:"api"`
	Auth struct {
		RiderID string `yaml:"rider_id"`
		Token   string `yaml:"token"`
		Secret  string `yaml:"secret"`
		Cookie  string `yaml:"cookie"` // raw "name=value" session cookie
	} `yaml:"auth"`
	Mapbox struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
		Token   string `yaml:"token"`
	} `yaml:"mapbox"`
	Tracker struct {
		AnimationDuration time.Duration `yaml:"animation_duration" validate:"gt=0"`
		FrameInterval     time.Duration `yaml:"frame_interval" validate:"gt=0"`
		RouteDebounce     time.Duration `yaml:"route_debounce" validate:"gt=0"`
		CarColor          string        `yaml:"car_color" validate:"oneof=black red silver"`
		ViewportWidth     float64       `yaml:"viewport_width" validate:"gt=0"`
		ViewportHeight    float64       `yaml:"viewport_height" validate:"gt=0"`
		Reconnect         struct {
			Enabled         bool          `yaml:"enabled"`
			InitialInterval time.Duration `yaml:"initial_interval" validate:"gt=0"`
			MaxInterval     time.Duration `yaml:"max_interval" validate:"gtefield=InitialInterval"`
			MaxAttempts     uint64        `yaml:"max_attempts" validate:"gte=1"`
		} `yaml:"reconnect"`
	} `yaml:"tracker"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Redis struct {
		Address  string        `yaml:"address"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" validate:"gte=0"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`
	Bridge struct {
		Port int `yaml:"port"` // 0 disables the local HTTP bridge
	} `yaml:"bridge"`
	Log struct {
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info error"`
	} `yaml:"log"`
}

// LoadFromFile loads config from a YAML file to a Config struct, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	// reconnect is on unless the file says otherwise
	cfg.Tracker.Reconnect.Enabled = true

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// API
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.API.PushURL == "" {
		cfg.API.PushURL = "ws://localhost:8081/ws"
	}
	if cfg.API.PollInterval == 0 {
		cfg.API.PollInterval = 5 * time.Second
	}
	if cfg.API.RequestTimeout == 0 {
		cfg.API.RequestTimeout = 10 * time.Second
	}

	// Mapbox
	if cfg.Mapbox.BaseURL == "" {
		cfg.Mapbox.BaseURL = "https://api.mapbox.com"
	}

	// Tracker
	if cfg.Tracker.AnimationDuration == 0 {
		cfg.Tracker.AnimationDuration = 700 * time.Millisecond
	}
	if cfg.Tracker.FrameInterval == 0 {
		cfg.Tracker.FrameInterval = 16 * time.Millisecond
	}
	if cfg.Tracker.RouteDebounce == 0 {
		cfg.Tracker.RouteDebounce = 250 * time.Millisecond
	}
	if cfg.Tracker.CarColor == "" {
		cfg.Tracker.CarColor = "red"
	}
	if cfg.Tracker.ViewportWidth == 0 {
		cfg.Tracker.ViewportWidth = 1280
	}
	if cfg.Tracker.ViewportHeight == 0 {
		cfg.Tracker.ViewportHeight = 800
	}
	if cfg.Tracker.Reconnect.InitialInterval == 0 {
		cfg.Tracker.Reconnect.InitialInterval = time.Second
	}
	if cfg.Tracker.Reconnect.MaxInterval == 0 {
		cfg.Tracker.Reconnect.MaxInterval = 30 * time.Second
	}
	if cfg.Tracker.Reconnect.MaxAttempts == 0 {
		cfg.Tracker.Reconnect.MaxAttempts = 8
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host != "" && cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Redis
	if cfg.Redis.Address != "" && cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}

	// Database
	if cfg.Database.Host != "" && cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// Log
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Namespace()), fe.Tag()))
		}
	}

	// identity
	if strings.TrimSpace(c.Auth.RiderID) == "" && strings.TrimSpace(c.Auth.Token) == "" {
		problems = append(problems, "auth.rider_id or auth.token is required")
	}

	// optional sinks: all-or-nothing credentials
	if c.RabbitMQEnabled() {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
	}
	if c.DatabaseEnabled() {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required")
		}
	}

	if c.Bridge.Port < 0 || c.Bridge.Port > 65535 {
		problems = append(problems, "bridge.port must be in 0..65535")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// RabbitMQEnabled reports whether the view publisher should be started.
func (c *Config) RabbitMQEnabled() bool { return c.RabbitMQ.Host != "" }

// RedisEnabled reports whether the view cache should be started.
func (c *Config) RedisEnabled() bool { return c.Redis.Address != "" }

// DatabaseEnabled reports whether the location trail should be recorded.
func (c *Config) DatabaseEnabled() bool { return c.Database.Host != "" }
