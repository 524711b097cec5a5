package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/websocket"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/cancel"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/mapview"
	"ride-tracker/internal/software/tracker"

	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	view      *trip.View
	carColor  string
	cancel    cancel.Status
	submitErr error
	openErr   error
	acked     bool
	pointer   []string
}

func (f *fakeTracker) View() *trip.View                      { return f.view }
func (f *fakeTracker) Connection() websocket.ConnectionState { return websocket.Connected }
func (f *fakeTracker) RiderID() string                       { return "r1" }
func (f *fakeTracker) CarColor() string                      { return f.carColor }
func (f *fakeTracker) Screen() ports.Screen                  { return ports.ScreenProfile }
func (f *fakeTracker) OverlayVisible() bool                  { return f.view != nil }
func (f *fakeTracker) OverlayPosition() gesture.Point        { return gesture.Point{X: 200, Y: 84} }
func (f *fakeTracker) CancelStatus() cancel.Status           { return f.cancel }

func (f *fakeTracker) SetCarColor(_ context.Context, name string) error {
	if _, ok := mapview.CarColors[name]; !ok {
		return tracker.ErrUnknownCarColor
	}
	f.carColor = name
	return nil
}

func (f *fakeTracker) OpenCancel() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.cancel.Phase = cancel.PhaseAwaitingReason
	return nil
}

func (f *fakeTracker) SelectCancelReason(reason string) error {
	f.cancel.Reason = reason
	return nil
}

func (f *fakeTracker) SubmitCancel(context.Context) error { return f.submitErr }
func (f *fakeTracker) DismissCancel()                     { f.cancel.Phase = cancel.PhaseIdle }

func (f *fakeTracker) AcknowledgeCancel(context.Context) bool { return f.acked }

func (f *fakeTracker) OverlayPointer(_ context.Context, action string, _ gesture.Point) (gesture.Outcome, error) {
	f.pointer = append(f.pointer, action)
	if action == "up" {
		return gesture.OutcomeTap, nil
	}
	return gesture.OutcomeNone, nil
}

func (f *fakeTracker) OverlayKey(context.Context, string) (gesture.Outcome, error) {
	return gesture.OutcomeNone, tracker.ErrNoActiveRide
}

func newTestHandler(trk *fakeTracker) *BridgeHandler {
	canvas := mapview.NewCanvas()
	canvas.PlaceMarker(ports.Marker{ID: "driver", Kind: ports.MarkerDriver, Position: trip.Point{Lat: 1, Lng: 2}})
	return NewBridgeHandler(trk, canvas, logger.Nop())
}

func do(t *testing.T, h *BridgeHandler, method, path, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := h.NewApp().Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return res.StatusCode, out
}

func TestHealth(t *testing.T) {
	code, body := do(t, newTestHandler(&fakeTracker{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["status"])
}

func TestView(t *testing.T) {
	trk := &fakeTracker{carColor: "red", view: &trip.View{TripID: "t1", SnapshotStatus: trip.StatusAccepted}}
	code, body := do(t, newTestHandler(trk), http.MethodGet, "/view", "")

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "r1", body["rider_id"])
	require.Equal(t, "connected", body["connection"])
	require.Equal(t, "red", body["car_color"])
	require.Equal(t, true, body["active"])
	require.Equal(t, "t1", body["view"].(map[string]any)["trip_id"])
}

func TestView_NoRide(t *testing.T) {
	code, body := do(t, newTestHandler(&fakeTracker{}), http.MethodGet, "/view", "")

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, body["active"])
	require.Nil(t, body["view"])
}

func TestMap(t *testing.T) {
	code, body := do(t, newTestHandler(&fakeTracker{}), http.MethodGet, "/map", "")

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "FeatureCollection", body["type"])
	require.Len(t, body["features"], 1)
}

func TestCarColor(t *testing.T) {
	trk := &fakeTracker{carColor: "black"}
	h := newTestHandler(trk)

	code, body := do(t, h, http.MethodPost, "/car-color", `{"color":"silver"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "silver", body["color"])

	code, _ = do(t, h, http.MethodPost, "/car-color", `{"color":"purple"}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/car-color", `not json`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestCancelEndpoints(t *testing.T) {
	trk := &fakeTracker{}
	h := newTestHandler(trk)

	code, body := do(t, h, http.MethodPost, "/cancel/open", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(cancel.PhaseAwaitingReason), body["phase"])

	trk.submitErr = cancel.ErrReasonRequired
	code, body = do(t, h, http.MethodPost, "/cancel/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, cancel.MsgReasonRequired, body["error"])

	code, body = do(t, h, http.MethodPost, "/cancel/reason", `{"reason":"Found another ride"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Found another ride", body["reason"])

	trk.submitErr = cancel.ErrCancelFailed
	code, body = do(t, h, http.MethodPost, "/cancel/submit", "")
	require.Equal(t, http.StatusBadGateway, code)
	require.Equal(t, cancel.MsgCancelFailed, body["error"])

	trk.submitErr = cancel.ErrSubmitInFlight
	code, _ = do(t, h, http.MethodPost, "/cancel/submit", "")
	require.Equal(t, http.StatusConflict, code)

	code, body = do(t, h, http.MethodPost, "/cancel/dismiss", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(cancel.PhaseIdle), body["phase"])

	code, _ = do(t, h, http.MethodPost, "/cancel/ack", "")
	require.Equal(t, http.StatusConflict, code)
}

func TestCancelOpen_NoRide(t *testing.T) {
	code, _ := do(t, newTestHandler(&fakeTracker{openErr: tracker.ErrNoActiveRide}), http.MethodPost, "/cancel/open", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestOverlay(t *testing.T) {
	trk := &fakeTracker{view: &trip.View{TripID: "t1"}}
	h := newTestHandler(trk)

	code, body := do(t, h, http.MethodGet, "/overlay", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["visible"])

	code, body = do(t, h, http.MethodPost, "/overlay/pointer", `{"action":"up","x":200,"y":84}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "tap", body["outcome"])
	require.Equal(t, []string{"up"}, trk.pointer)

	code, _ = do(t, h, http.MethodPost, "/overlay/key", `{"key":"Enter"}`)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRequestIDEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")

	res, err := newTestHandler(&fakeTracker{}).NewApp().Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "abc", res.Header.Get("X-Request-ID"))
}
