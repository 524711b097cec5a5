// Package tripapi is the HTTP client of the persisted-trip REST endpoints.
package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/contracts"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthenticated = errors.New("session is not authenticated")
	ErrRemoteRejected  = errors.New("request rejected by backend")
	ErrInvalidPayload  = errors.New("unexpected response payload")
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string // bearer token, optional
	Cookie     string // raw "name=value" session cookie, optional
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the trip backend with the rider's credentials.
type Client struct {
	logger   *logger.Logger
	base     *url.URL
	http     *http.Client
	token    string
	validate *validator.Validate
}

var _ ports.TripAPI = (*Client)(nil)

// New creates a Client. The session cookie, when given, is seeded into a cookie jar
// so cookies set by the backend are carried along too.
func New(log *logger.Logger, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	if name, value, ok := strings.Cut(strings.TrimSpace(opts.Cookie), "="); ok && name != "" {
		hc.Jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}

	return &Client{
		logger:   log,
		base:     base,
		http:     hc,
		token:    strings.TrimSpace(opts.Token),
		validate: validator.New(),
	}, nil
}

// ActiveRideID returns the id of the rider's active ride, if any.
func (c *Client) ActiveRideID(ctx context.Context) (string, bool, error) {
	var res contracts.ActiveRideIDResponse
	if err := c.do(ctx, http.MethodGet, contracts.PathActiveRideID, nil, nil, &res); err != nil {
		return "", false, err
	}
	if !res.Status || res.TripID == nil || strings.TrimSpace(*res.TripID) == "" {
		return "", false, nil
	}
	return *res.TripID, true, nil
}

// ActiveTrip fetches the snapshot of tripID.
func (c *Client) ActiveTrip(ctx context.Context, tripID string) (*trip.Snapshot, error) {
	if strings.TrimSpace(tripID) == "" {
		return nil, trip.ErrEmptyTripID
	}

	var res contracts.ActiveTrip
	query := url.Values{"tid": []string{tripID}}
	if err := c.do(ctx, http.MethodGet, contracts.PathActiveRide, query, nil, &res); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return toSnapshot(res)
}

// CancelRide asks the backend to cancel a ride and reports its success flag.
func (c *Client) CancelRide(ctx context.Context, req ports.CancelRequest) (bool, error) {
	body := contracts.CancelRideRequest{TripID: req.TripID, DriverID: req.DriverID, Reason: req.Reason}

	var res contracts.CancelRideResponse
	if err := c.do(ctx, http.MethodPost, contracts.PathCancelRide, nil, body, &res); err != nil {
		return false, err
	}
	return res.Success, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug(ctx, "trip_api_call", "Backend call finished", map[string]any{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnauthenticated, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s returned %d", ErrRemoteRejected, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidPayload, method, path, err)
	}
	return nil
}

func toSnapshot(res contracts.ActiveTrip) (*trip.Snapshot, error) {
	status, err := trip.ParseStatus(res.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	snap := &trip.Snapshot{
		TripID:               res.TripID,
		RiderID:              res.RiderID,
		PaymentID:            res.PaymentID,
		DriverID:             res.DriverID,
		Pickup:               trip.Place{Location: res.PickupLocation, Point: trip.Point{Lat: res.PickupLat, Lng: res.PickupLng}},
		Dropoff:              trip.Place{Location: res.DropoffLocation, Point: trip.Point{Lat: res.DropoffLat, Lng: res.DropoffLng}},
		EstimatedDistanceKm:  res.EstimatedDistanceKm,
		EstimatedDurationMin: res.EstimatedDurationMin,
		EstimatedPrice:       res.EstimatedPrice,
		Status:               status,
	}
	if snap.DriverID != nil && strings.TrimSpace(*snap.DriverID) == "" {
		snap.DriverID = nil
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return snap, nil
}
