package sinks

import (
	"context"
	"errors"
	"slices"
	"sync"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/sourcegraph/conc/pool"
)

// DefaultQueueSize bounds the number of undelivered view updates.
const DefaultQueueSize = 64

type update struct {
	ctx     context.Context
	riderID string
	view    *trip.View
}

// Fanout delivers view updates to every sink off the caller's goroutine.
// Updates are delivered in order; each update reaches all sinks before the next starts.
// A full queue drops live views but never a clear (nil view): the clear replaces the
// rider's queued views instead.
type Fanout struct {
	log   *logger.Logger
	sinks []ports.ViewSink
	size  int

	mu    sync.Mutex
	queue []update
	ready chan struct{}
}

// NewFanout creates a fan-out over sinks with a queue of size entries.
func NewFanout(log *logger.Logger, size int, sinks ...ports.ViewSink) *Fanout {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Fanout{log: log, sinks: sinks, size: size, ready: make(chan struct{}, 1)}
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int { return len(f.sinks) }

// Queued reports how many updates wait for delivery.
func (f *Fanout) Queued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Offer enqueues the update without blocking. It returns false when the queue is full
// and the update was dropped.
func (f *Fanout) Offer(ctx context.Context, riderID string, view *trip.View) bool {
	if len(f.sinks) == 0 {
		return true
	}

	f.mu.Lock()
	if len(f.queue) >= f.size {
		if view != nil {
			f.mu.Unlock()
			f.log.Error(ctx, "sink_queue_full", "Dropping trip view update", errors.New("sink queue full"), map[string]any{
				"trip_id":  view.TripID,
				"capacity": f.size,
			})
			return false
		}
		f.queue = slices.DeleteFunc(f.queue, func(u update) bool { return u.riderID == riderID })
	}
	f.queue = append(f.queue, update{ctx: context.WithoutCancel(ctx), riderID: riderID, view: view})
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
	return true
}

// Run drains the queue until ctx is done.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		u, ok := f.next()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-f.ready:
			}
			continue
		}
		f.deliver(ctx, u)
	}
}

func (f *Fanout) next() (update, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return update{}, false
	}
	u := f.queue[0]
	f.queue[0] = update{}
	f.queue = f.queue[1:]
	return u, true
}

func (f *Fanout) deliver(ctx context.Context, u update) {
	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(f.sinks))
	for _, sink := range f.sinks {
		sink := sink
		p.Go(func(ctx context.Context) error {
			if err := sink.Publish(ctx, u.riderID, u.view); err != nil {
				f.log.Error(u.ctx, "sink_publish_failed", "Sink rejected trip view update", err, map[string]any{
					"sink": sink.Name(),
				})
			}
			return nil
		})
	}
	_ = p.Wait()
}
