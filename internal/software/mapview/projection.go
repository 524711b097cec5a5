package mapview

import (
	"math"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/software/gesture"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize    = 256.0
	earthRadius = 6378137.0
)

// Projection converts between screen pixels and coordinates for a viewport centred on Center.
type Projection struct {
	Center   trip.Point
	Zoom     float64
	Viewport gesture.Viewport
}

// metersPerPixel at the projection zoom (Web Mercator, equator scale).
func (p Projection) metersPerPixel() float64 {
	return 2 * math.Pi * earthRadius / (tileSize * math.Pow(2, p.Zoom))
}

// ToScreen returns where pt is drawn.
func (p Projection) ToScreen(pt trip.Point) gesture.Point {
	c := project.Point(p.Center.Orb(), project.WGS84.ToMercator)
	m := project.Point(pt.Orb(), project.WGS84.ToMercator)
	mpp := p.metersPerPixel()

	return gesture.Point{
		X: p.Viewport.Width/2 + (m.X()-c.X())/mpp,
		Y: p.Viewport.Height/2 - (m.Y()-c.Y())/mpp,
	}
}

// ToPoint returns the coordinate under screen position sp.
func (p Projection) ToPoint(sp gesture.Point) trip.Point {
	c := project.Point(p.Center.Orb(), project.WGS84.ToMercator)
	mpp := p.metersPerPixel()

	m := orb.Point{
		c.X() + (sp.X-p.Viewport.Width/2)*mpp,
		c.Y() - (sp.Y-p.Viewport.Height/2)*mpp,
	}
	return trip.FromOrb(project.Point(m, project.Mercator.ToWGS84))
}
