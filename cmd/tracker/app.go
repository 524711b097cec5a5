// Package trackerapp wires the live trip tracker and its one-shot rider commands.
package trackerapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/jwt"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/mapbox"
	"ride-tracker/internal/general/postgres"
	"ride-tracker/internal/general/rabbitmq"
	"ride-tracker/internal/general/redisstore"
	"ride-tracker/internal/general/tripapi"
	"ride-tracker/internal/general/websocket"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/mapview"
	"ride-tracker/internal/software/navigation"
	"ride-tracker/internal/software/sinks"
	"ride-tracker/internal/software/tracker"
	"ride-tracker/internal/software/tracker/handler"

	"github.com/sourcegraph/conc/pool"
)

// Run wires the tracker and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ctx = log.WithRequestID(ctx, "startup-001")

	// resolve the rider identity from the session token
	identity, err := jwt.ResolveIdentity(cfg.Auth.RiderID, cfg.Auth.Token, cfg.Auth.Secret)
	if err != nil {
		log.Error(ctx, "identity_resolve_failed", "Failed to resolve rider identity", err, nil)
		return err
	}

	api, err := newTripAPI(cfg, log, identity)
	if err != nil {
		return err
	}

	// set up directions on the shared request timeout
	directions := mapbox.New(log, cfg.Mapbox.BaseURL, cfg.Mapbox.Token, &http.Client{Timeout: cfg.API.RequestTimeout})

	// the in-memory surface has no style to wait for
	canvas := mapview.NewCanvas()
	canvas.SetStyleLoaded(true)
	router := navigation.NewRouter(log, ports.ScreenHome)

	// set up the optional view sinks
	viewSinks, closeSinks, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()
	fanout := sinks.NewFanout(log, sinks.DefaultQueueSize, viewSinks...)

	header := http.Header{}
	if identity.Token != "" {
		header.Set("Authorization", "Bearer "+identity.Token)
	}
	if strings.TrimSpace(cfg.Auth.Cookie) != "" {
		header.Set("Cookie", strings.TrimSpace(cfg.Auth.Cookie))
	}

	trk, err := tracker.New(log, tracker.Config{
		PollInterval:      cfg.API.PollInterval,
		AnimationDuration: cfg.Tracker.AnimationDuration,
		FrameInterval:     cfg.Tracker.FrameInterval,
		RouteDebounce:     cfg.Tracker.RouteDebounce,
		CarColor:          cfg.Tracker.CarColor,
		Viewport:          gesture.Viewport{Width: cfg.Tracker.ViewportWidth, Height: cfg.Tracker.ViewportHeight},
	}, identity, tracker.Deps{
		API:        api,
		Directions: directions,
		Surface:    canvas,
		Navigator:  router,
		NewSocket: func(h websocket.Handler) tracker.Socket {
			return websocket.NewClient(log, websocket.Options{
				URL:    cfg.API.PushURL,
				Header: header,
				Reconnect: websocket.ReconnectPolicy{
					Enabled:         cfg.Tracker.Reconnect.Enabled,
					InitialInterval: cfg.Tracker.Reconnect.InitialInterval,
					MaxInterval:     cfg.Tracker.Reconnect.MaxInterval,
					MaxAttempts:     cfg.Tracker.Reconnect.MaxAttempts,
				},
			}, h)
		},
		Sink: fanout,
	})
	if err != nil {
		log.Error(ctx, "tracker_init_failed", "Failed to set up tracker", err, nil)
		return err
	}

	// run the tracker, the sink worker and the bridge until one fails or ctx ends
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(trk.Run)
	p.Go(fanout.Run)

	if cfg.Bridge.Port > 0 {
		app := handler.NewBridgeHandler(trk, canvas, log).NewApp()
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Bridge.Port)
		p.Go(func(ctx context.Context) error {
			log.Info(ctx, "bridge_started", fmt.Sprintf("Local bridge listening on %s", addr), map[string]any{"port": cfg.Bridge.Port})
			return handler.Listen(ctx, app, addr)
		})
	}

	log.Info(ctx, "service_started", "Ride tracker started", map[string]any{
		"rider_id": identity.RiderID,
		"sinks":    fanout.Len(),
		"bridge":   cfg.Bridge.Port,
	})

	if err := p.Wait(); err != nil {
		log.Error(ctx, "service_failed", "Ride tracker stopped with error", err, nil)
		return err
	}
	return nil
}

func newTripAPI(cfg *config.Config, log *logger.Logger, identity jwt.Identity) (*tripapi.Client, error) {
	api, err := tripapi.New(log, tripapi.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   identity.Token,
		Cookie:  cfg.Auth.Cookie,
		Timeout: cfg.API.RequestTimeout,
	})
	if err != nil {
		log.Error(context.Background(), "trip_api_init_failed", "Failed to set up trip API client", err, nil)
		return nil, err
	}
	return api, nil
}

// openSinks connects every configured sink. The returned func closes them.
func openSinks(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]ports.ViewSink, func(), error) {
	var (
		out     []ports.ViewSink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// connect to RabbitMQ
	if cfg.RabbitMQEnabled() {
		rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
		if err != nil {
			log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, rmq.Close)
		out = append(out, rabbitmq.NewViewPublisher(rmq))
	}

	// connect to Redis
	if cfg.RedisEnabled() {
		rdb, err := redisstore.Connect(ctx, cfg, log)
		if err != nil {
			log.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, nil)
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		out = append(out, redisstore.NewViewCache(rdb, cfg.Redis.TTL))
	}

	// set up a Postgres connection pool
	if cfg.DatabaseEnabled() {
		pg, err := postgres.NewPool(ctx, cfg, log)
		if err != nil {
			log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		if err := postgres.EnsureTrailSchema(ctx, pg); err != nil {
			log.Error(ctx, "db_schema_failed", "Failed to prepare trail table", err, nil)
			closeAll()
			return nil, nil, err
		}
		out = append(out, sinks.NewTrailSink(postgres.NewUnitOfWork(pg), postgres.NewTrailRepo()))
	}

	return out, closeAll, nil
}
