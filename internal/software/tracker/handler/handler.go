package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/websocket"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/cancel"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/tracker"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

const ctxKeyRequestCtx = "request_ctx"

// Tracker is what the bridge reads and drives.
type Tracker interface {
	View() *trip.View
	Connection() websocket.ConnectionState
	RiderID() string
	CarColor() string
	Screen() ports.Screen
	OverlayVisible() bool
	OverlayPosition() gesture.Point
	CancelStatus() cancel.Status

	SetCarColor(ctx context.Context, name string) error
	OpenCancel() error
	SelectCancelReason(reason string) error
	SubmitCancel(ctx context.Context) error
	DismissCancel()
	AcknowledgeCancel(ctx context.Context) bool
	OverlayPointer(ctx context.Context, action string, at gesture.Point) (gesture.Outcome, error)
	OverlayKey(ctx context.Context, key string) (gesture.Outcome, error)
}

// Map renders the surface as GeoJSON.
type Map interface {
	FeatureCollection() *geojson.FeatureCollection
}

// BridgeHandler adapts local HTTP requests to the tracker.
type BridgeHandler struct {
	tracker Tracker
	surface Map
	logger  *logger.Logger
}

// NewBridgeHandler wires an HTTP handler around the tracker.
func NewBridgeHandler(trk Tracker, surface Map, logger *logger.Logger) *BridgeHandler {
	return &BridgeHandler{tracker: trk, surface: surface, logger: logger}
}

// NewApp builds the fiber app with every route mounted.
func (handler *BridgeHandler) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          35 * time.Second,
		ErrorHandler:          handler.errorHandler,
	})
	app.Use(handler.requestLogger())
	handler.RegisterRoutes(app)
	return app
}

// RegisterRoutes mounts bridge endpoints on router.
func (handler *BridgeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", handler.handleHealth)
	router.Get("/view", handler.handleView)
	router.Get("/map", handler.handleMap)
	router.Get("/connection", handler.handleConnection)
	router.Post("/car-color", handler.handleCarColor)

	cancelGroup := router.Group("/cancel")
	cancelGroup.Get("/", handler.handleCancelStatus)
	cancelGroup.Post("/open", handler.handleCancelOpen)
	cancelGroup.Post("/reason", handler.handleCancelReason)
	cancelGroup.Post("/submit", handler.handleCancelSubmit)
	cancelGroup.Post("/dismiss", handler.handleCancelDismiss)
	cancelGroup.Post("/ack", handler.handleCancelAck)

	overlay := router.Group("/overlay")
	overlay.Get("/", handler.handleOverlay)
	overlay.Post("/pointer", handler.handleOverlayPointer)
	overlay.Post("/key", handler.handleOverlayKey)
}

// Listen serves app on addr until ctx is done.
func Listen(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}

// ----- general helpers -----

type errBody struct {
	Error string `json:"error"`
}

// requestLogger tags each request with an id and logs its outcome.
func (handler *BridgeHandler) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get("X-Request-ID")
		if strings.TrimSpace(reqID) == "" {
			reqID = uuid.NewString()
		}
		c.Set("X-Request-ID", reqID)
		ctx := handler.logger.WithRequestID(c.UserContext(), reqID)
		c.Locals(ctxKeyRequestCtx, ctx)

		err := c.Next()
		if err != nil {
			// status is set by the error handler
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		details := map[string]any{
			"status":     c.Response().StatusCode(),
			"method":     c.Method(),
			"path":       c.Path(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			handler.logger.Error(ctx, "http_request", "HTTP request failed", err, details)
		} else {
			handler.logger.Debug(ctx, "http_request", "HTTP request", details)
		}
		return nil
	}
}

func (handler *BridgeHandler) ctx(c *fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(ctxKeyRequestCtx).(context.Context); ok {
		return ctx
	}
	return c.UserContext()
}

// errorHandler maps domain errors onto HTTP statuses.
func (handler *BridgeHandler) errorHandler(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		handler.logger.Error(handler.ctx(c), "http_internal_error", msg, err, nil)
	}
	return c.Status(status).JSON(errBody{Error: msg})
}

func statusFor(err error) (int, string) {
	var ferr *fiber.Error
	switch {
	case errors.As(err, &ferr):
		return ferr.Code, ferr.Message
	case errors.Is(err, cancel.ErrReasonRequired):
		return fiber.StatusUnprocessableEntity, cancel.MsgReasonRequired
	case errors.Is(err, cancel.ErrCancelFailed):
		return fiber.StatusBadGateway, cancel.MsgCancelFailed
	case errors.Is(err, cancel.ErrUnknownReason),
		errors.Is(err, tracker.ErrUnknownCarColor),
		errors.Is(err, tracker.ErrUnknownAction):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, tracker.ErrNoActiveRide),
		errors.Is(err, cancel.ErrNoTrip):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, cancel.ErrSubmitInFlight),
		errors.Is(err, cancel.ErrNotOpen),
		errors.Is(err, cancel.ErrDriverCancelled):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, tracker.ErrStopped):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal error"
	}
}

// bind decodes the JSON body into out.
func bind(c *fiber.Ctx, out any) error {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "content type must be application/json")
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	return nil
}
