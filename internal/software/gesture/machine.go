// Package gesture tells a tap from a drag on draggable on-screen controls.
package gesture

import (
	"math"
	"sync"
)

const (
	DefaultMargin    = 44.0 // px kept between the control and the viewport edges
	DefaultThreshold = 6.0  // px a move must exceed on either axis to count as a drag
)

// Point is a screen position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the visible screen area.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Button identifies the pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Outcome is what a released pointer (or key press) amounted to.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeTap
	OutcomeDrag
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeTap:
		return "tap"
	case OutcomeDrag:
		return "drag"
	default:
		return "none"
	}
}

// DragState is reset on every pointer-down.
type DragState struct {
	IsDragging bool  `json:"is_dragging"`
	Moved      bool  `json:"moved"`
	Offset     Point `json:"offset"`
}

// Machine is the Idle/Dragging state machine of one draggable control.
type Machine struct {
	mu        sync.Mutex
	viewport  Viewport
	margin    float64
	threshold float64
	clamp     bool
	pos       Point
	drag      DragState
}

// Option tunes a Machine.
type Option func(*Machine)

// WithMargin overrides the edge margin.
func WithMargin(px float64) Option {
	return func(m *Machine) { m.margin = px }
}

// WithThreshold overrides the drag threshold.
func WithThreshold(px float64) Option {
	return func(m *Machine) { m.threshold = px }
}

// WithoutClamp lets the control go anywhere (map markers).
func WithoutClamp() Option {
	return func(m *Machine) { m.clamp = false }
}

// NewMachine creates an idle Machine with the control at start.
func NewMachine(viewport Viewport, start Point, opts ...Option) *Machine {
	m := &Machine{
		viewport:  viewport,
		margin:    DefaultMargin,
		threshold: DefaultThreshold,
		clamp:     true,
		pos:       start,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PointerDown starts a drag for the primary button. Other buttons are ignored.
func (m *Machine) PointerDown(p Point, button Button) bool {
	if button != ButtonPrimary {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.drag = DragState{
		IsDragging: true,
		Offset:     Point{X: p.X - m.pos.X, Y: p.Y - m.pos.Y},
	}
	return true
}

// PointerMove follows the pointer while dragging and returns the control position.
func (m *Machine) PointerMove(p Point) Point {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.drag.IsDragging {
		return m.pos
	}

	next := Point{X: p.X - m.drag.Offset.X, Y: p.Y - m.drag.Offset.Y}
	if m.clamp {
		next = m.clampToViewport(next)
	}

	if math.Abs(next.X-m.pos.X) > m.threshold || math.Abs(next.Y-m.pos.Y) > m.threshold {
		m.drag.Moved = true
	}
	m.pos = next
	return next
}

// PointerUp ends the gesture. A release without movement is a tap.
func (m *Machine) PointerUp() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.drag.IsDragging {
		return OutcomeNone
	}
	moved := m.drag.Moved
	m.drag = DragState{}

	if moved {
		return OutcomeDrag
	}
	return OutcomeTap
}

// Key handles keyboard activation: Enter and Space act as a tap.
func (m *Machine) Key(key string) Outcome {
	switch key {
	case "Enter", " ", "Space":
		return OutcomeTap
	default:
		return OutcomeNone
	}
}

// Position returns where the control is drawn.
func (m *Machine) Position() Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// SetPosition moves the control without a gesture.
func (m *Machine) SetPosition(p Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = p
}

// State returns the current drag state.
func (m *Machine) State() DragState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag
}

// Resize updates the viewport and pulls the control back inside it.
func (m *Machine) Resize(v Viewport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = v
	if m.clamp {
		m.pos = m.clampToViewport(m.pos)
	}
}

func (m *Machine) clampToViewport(p Point) Point {
	return Point{
		X: clamp(p.X, m.margin, m.viewport.Width-m.margin),
		Y: clamp(p.Y, m.margin, m.viewport.Height-m.margin),
	}
}

// clamp bounds v to [lo, hi]; when the viewport is narrower than two margins lo wins.
func clamp(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}
