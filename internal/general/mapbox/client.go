// Package mapbox wraps the Mapbox directions and reverse-geocoding APIs.
package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FallbackPlaceName is used when reverse geocoding finds nothing.
const FallbackPlaceName = "Selected location"

var ErrLookupFailed = errors.New("mapbox lookup failed")

// Client calls Mapbox over HTTP.
type Client struct {
	logger *logger.Logger
	base   string
	token  string
	http   *http.Client
}

var (
	_ ports.Directions = (*Client)(nil)
	_ ports.Geocoder   = (*Client)(nil)
)

// New creates a Client. A nil httpClient gets a 10s timeout.
func New(log *logger.Logger, baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		logger: log,
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		http:   httpClient,
	}
}

type directionsResponse struct {
	Routes []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route returns the driving route from one point to another.
// A response without a route of at least two coordinates yields trip.ErrNoRoute.
func (c *Client) Route(ctx context.Context, from, to trip.Point) (*trip.Route, error) {
	path := fmt.Sprintf("/directions/v5/mapbox/driving/%s,%s;%s,%s",
		coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat))
	q := url.Values{
		"geometries": []string{"geojson"},
		"overview":   []string{"full"},
	}

	var res directionsResponse
	if err := c.get(ctx, path, q, &res); err != nil {
		return nil, err
	}
	if len(res.Routes) == 0 {
		return nil, trip.ErrNoRoute
	}

	first := res.Routes[0]
	if first.Geometry == nil {
		return nil, trip.ErrNoRoute
	}
	line, ok := first.Geometry.Geometry().(orb.LineString)
	if !ok {
		return nil, trip.ErrNoRoute
	}

	route := &trip.Route{
		Line:            line,
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
	}
	if !route.Usable() {
		return nil, trip.ErrNoRoute
	}
	return route, nil
}

// Quote prices the driving route between two points.
func (c *Client) Quote(ctx context.Context, from, to trip.Point) (*trip.Route, trip.Quote, error) {
	route, err := c.Route(ctx, from, to)
	if err != nil {
		return nil, trip.Quote{}, err
	}
	return route, route.Quote(), nil
}

type geocodeResponse struct {
	Features []struct {
		PlaceName string `json:"place_name"`
	} `json:"features"`
}

// ReverseGeocode returns the first place name at p, or FallbackPlaceName.
// Lookup failures also fall back; the error is returned alongside for logging.
func (c *Client) ReverseGeocode(ctx context.Context, p trip.Point) (string, error) {
	path := fmt.Sprintf("/geocoding/v5/mapbox.places/%s,%s.json", coord(p.Lng), coord(p.Lat))

	var res geocodeResponse
	if err := c.get(ctx, path, url.Values{}, &res); err != nil {
		return FallbackPlaceName, err
	}
	if len(res.Features) == 0 || strings.TrimSpace(res.Features[0].PlaceName) == "" {
		return FallbackPlaceName, nil
	}
	return res.Features[0].PlaceName, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("access_token", c.token)
	endpoint := c.base + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLookupFailed, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrLookupFailed, resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrLookupFailed, path, err)
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
