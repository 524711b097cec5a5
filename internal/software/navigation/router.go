// Package navigation keeps track of the screen the rider is on.
package navigation

import (
	"context"
	"sync"

	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"
)

// Router implements ports.Navigator in memory and notifies listeners of every move.
type Router struct {
	logger *logger.Logger

	mu        sync.RWMutex
	current   ports.Screen
	history   []ports.Screen
	listeners []func(ports.Screen)
}

// NewRouter starts on screen.
func NewRouter(log *logger.Logger, start ports.Screen) *Router {
	if start == "" {
		start = ports.ScreenHome
	}
	return &Router{logger: log, current: start, history: []ports.Screen{start}}
}

// Navigate moves to screen. Navigating to the current screen is a no-op.
func (r *Router) Navigate(ctx context.Context, screen ports.Screen) {
	r.mu.Lock()
	if r.current == screen {
		r.mu.Unlock()
		return
	}
	from := r.current
	r.current = screen
	r.history = append(r.history, screen)
	listeners := append([]func(ports.Screen){}, r.listeners...)
	r.mu.Unlock()

	r.logger.Info(ctx, "navigate", "Screen changed", map[string]any{
		"from": string(from),
		"to":   string(screen),
	})

	for _, fn := range listeners {
		fn(screen)
	}
}

// Current returns the screen shown now.
func (r *Router) Current() ports.Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History returns every screen visited, oldest first.
func (r *Router) History() []ports.Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ports.Screen(nil), r.history...)
}

// OnNavigate registers a listener. Listeners must not block.
func (r *Router) OnNavigate(fn func(ports.Screen)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}
