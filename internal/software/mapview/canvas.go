// Package mapview is the in-memory map surface the tracker renders into.
package mapview

import (
	"sort"
	"sync"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Marker colours.
const (
	ColorPickupDestination  = "#22c55e"
	ColorDropoffDestination = "#ef4444"
	ColorRoute              = "#ffffff"
)

// CarColors maps the selectable car colours to marker colours.
var CarColors = map[string]string{
	"black":  "#111111",
	"red":    "#b91c1c",
	"silver": "#c0c0c0",
}

// DestinationColor is green while heading to pickup and red while heading to dropoff.
func DestinationColor(phase trip.Phase) string {
	if phase == trip.PhaseToDropoff {
		return ColorDropoffDestination
	}
	return ColorPickupDestination
}

// Canvas implements ports.MapSurface in memory. It is safe for concurrent use.
type Canvas struct {
	mu        sync.RWMutex
	loaded    bool
	markers   map[string]ports.Marker
	route     orb.LineString
	routeTrip string
}

// NewCanvas creates an empty canvas whose style is not loaded yet.
func NewCanvas() *Canvas {
	return &Canvas{markers: make(map[string]ports.Marker)}
}

// SetStyleLoaded flips the style-loaded flag.
func (c *Canvas) SetStyleLoaded(loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = loaded
}

func (c *Canvas) StyleLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// PlaceMarker adds m or replaces the marker with the same id.
func (c *Canvas) PlaceMarker(m ports.Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[m.ID] = m
}

func (c *Canvas) MoveMarker(id string, p trip.Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.markers[id]
	if !ok {
		return false
	}
	m.Position = p
	c.markers[id] = m
	return true
}

func (c *Canvas) MarkerPosition(id string) (trip.Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markers[id]
	return m.Position, ok
}

func (c *Canvas) RecolorMarker(id, color string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.markers[id]
	if !ok {
		return false
	}
	m.Color = color
	c.markers[id] = m
	return true
}

func (c *Canvas) RemoveMarker(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, id)
}

// SetRoute replaces the route line.
func (c *Canvas) SetRoute(tripID string, line orb.LineString) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = line.Clone()
	c.routeTrip = tripID
}

func (c *Canvas) RemoveRoute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = nil
	c.routeTrip = ""
}

// Marker returns the marker with id.
func (c *Canvas) Marker(id string) (ports.Marker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markers[id]
	return m, ok
}

// Markers returns all markers ordered by id.
func (c *Canvas) Markers() []ports.Marker {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ports.Marker, 0, len(c.markers))
	for _, m := range c.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Route returns the drawn route and the trip it belongs to.
func (c *Canvas) Route() (string, orb.LineString, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.route) == 0 {
		return "", nil, false
	}
	return c.routeTrip, c.route.Clone(), true
}

// Clear removes every marker and the route.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = make(map[string]ports.Marker)
	c.route = nil
	c.routeTrip = ""
}

// FeatureCollection renders the surface as GeoJSON: one Point per marker and the route LineString.
func (c *Canvas) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range c.Markers() {
		f := geojson.NewFeature(m.Position.Orb())
		f.ID = m.ID
		f.Properties["kind"] = string(m.Kind)
		f.Properties["color"] = m.Color
		fc.Append(f)
	}

	if tripID, line, ok := c.Route(); ok {
		f := geojson.NewFeature(line)
		f.ID = "route"
		f.Properties["kind"] = "route"
		f.Properties["trip_id"] = tripID
		f.Properties["color"] = ColorRoute
		fc.Append(f)
	}

	return fc
}

// Bounds covers every marker and the route.
func (c *Canvas) Bounds() (orb.Bound, bool) {
	var mp orb.MultiPoint
	for _, m := range c.Markers() {
		mp = append(mp, m.Position.Orb())
	}
	if _, line, ok := c.Route(); ok {
		mp = append(mp, line...)
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}
