package animation

import (
	"sync"
	"time"

	"ride-tracker/internal/domain/trip"
)

// Surface is the part of the map the scheduler draws on.
type Surface interface {
	MoveMarker(id string, p trip.Point) bool
	MarkerPosition(id string) (trip.Point, bool)
}

// Scheduler runs at most one frame loop per marker.
type Scheduler struct {
	surface  Surface
	duration time.Duration
	frame    time.Duration
	now      func() time.Time

	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	state State
	quit  chan struct{}
	done  chan struct{}
}

// Option tunes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a Scheduler. Zero durations fall back to 700ms and 16ms.
func NewScheduler(surface Surface, duration, frame time.Duration, opts ...Option) *Scheduler {
	if duration <= 0 {
		duration = 700 * time.Millisecond
	}
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	s := &Scheduler{
		surface:  surface,
		duration: duration,
		frame:    frame,
		now:      time.Now,
		tasks:    make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnimateTo moves markerID to target, starting from its currently rendered position.
// An in-flight animation of the same marker is superseded. It returns false when the
// marker is not on the surface; first placement is the caller's job.
func (s *Scheduler) AnimateTo(markerID string, target trip.Point) bool {
	s.Cancel(markerID)

	from, ok := s.surface.MarkerPosition(markerID)
	if !ok {
		return false
	}
	if from == target {
		return true
	}

	t := &task{
		state: State{Current: from, Target: target, StartTime: s.now(), Duration: s.duration},
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[markerID] = t
	s.mu.Unlock()

	go s.loop(markerID, t)
	return true
}

func (s *Scheduler) loop(markerID string, t *task) {
	defer close(t.done)

	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return
		case <-ticker.C:
		}

		now := s.now()
		s.surface.MoveMarker(markerID, t.state.Position(now))

		if t.state.Progress(now) >= 1 {
			s.mu.Lock()
			if s.tasks[markerID] == t {
				delete(s.tasks, markerID)
			}
			s.mu.Unlock()
			return
		}
	}
}

// Cancel stops the animation of markerID and waits for its frame loop to exit.
// The marker stays where the last frame put it.
func (s *Scheduler) Cancel(markerID string) {
	s.mu.Lock()
	t, ok := s.tasks[markerID]
	delete(s.tasks, markerID)
	s.mu.Unlock()

	if !ok {
		return
	}
	close(t.quit)
	<-t.done
}

// CancelAll stops every animation.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Cancel(id)
	}
}

// Active returns the in-flight animation of markerID.
func (s *Scheduler) Active(markerID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[markerID]
	if !ok {
		return State{}, false
	}
	return t.state, true
}
