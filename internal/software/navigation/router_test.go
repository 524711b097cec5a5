package navigation

import (
	"context"
	"testing"

	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	r := NewRouter(logger.Nop(), "")
	require.Equal(t, ports.ScreenHome, r.Current())

	var seen []ports.Screen
	r.OnNavigate(func(s ports.Screen) { seen = append(seen, s) })

	r.Navigate(context.Background(), ports.ScreenLiveTrip)
	r.Navigate(context.Background(), ports.ScreenLiveTrip)
	r.Navigate(context.Background(), ports.ScreenHome)

	require.Equal(t, ports.ScreenHome, r.Current())
	require.Equal(t, []ports.Screen{ports.ScreenLiveTrip, ports.ScreenHome}, seen)
	require.Equal(t, []ports.Screen{ports.ScreenHome, ports.ScreenLiveTrip, ports.ScreenHome}, r.History())
}
