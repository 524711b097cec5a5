package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
auth:
  rider_id: rider-1
`))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, "ws://localhost:8081/ws", cfg.API.PushURL)
	require.Equal(t, 5*time.Second, cfg.API.PollInterval)
	require.Equal(t, 700*time.Millisecond, cfg.Tracker.AnimationDuration)
	require.Equal(t, 250*time.Millisecond, cfg.Tracker.RouteDebounce)
	require.Equal(t, "red", cfg.Tracker.CarColor)
	require.True(t, cfg.Tracker.Reconnect.Enabled)
	require.Equal(t, uint64(8), cfg.Tracker.Reconnect.MaxAttempts)
	require.False(t, cfg.RabbitMQEnabled())
	require.False(t, cfg.RedisEnabled())
	require.False(t, cfg.DatabaseEnabled())
}

func TestParseReadsSections(t *testing.T) {
	cfg, err := Parse([]byte(`
api:
  base_url: https://rides.example.com
  push_url: wss://rides.example.com/ws
  poll_interval: 2s
auth:
  token: abc.def.ghi
tracker:
  car_color: silver
  route_debounce: 100ms
  reconnect:
    enabled: false
rabbitmq:
  host: mq
  user: guest
  password: guest
redis:
  address: cache:6379
database:
  host: db
  user: rider
  database: trips
log:
  format: console
`))
	require.NoError(t, err)

	require.Equal(t, 2*time.Second, cfg.API.PollInterval)
	require.Equal(t, "silver", cfg.Tracker.CarColor)
	require.Equal(t, 100*time.Millisecond, cfg.Tracker.RouteDebounce)
	require.False(t, cfg.Tracker.Reconnect.Enabled)
	require.Equal(t, 5672, cfg.RabbitMQ.Port)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	require.True(t, cfg.RabbitMQEnabled())
	require.True(t, cfg.RedisEnabled())
	require.True(t, cfg.DatabaseEnabled())
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte(`
tracker:
  car_color: purple
rabbitmq:
  host: mq
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "carcolor")
	require.Contains(t, err.Error(), "auth.rider_id or auth.token is required")
	require.Contains(t, err.Error(), "rabbitmq.user is required")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  rider_id: r-9\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "r-9", cfg.Auth.RiderID)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
