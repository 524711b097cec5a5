// Package cli defines the ride-tracker command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	plannerapp "ride-tracker/cmd/planner"
	trackerapp "ride-tracker/cmd/tracker"
	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/software/cancel"

	"github.com/urfave/cli/v2"
)

const (
	serviceName       = "ride-tracker"
	defaultConfigPath = "config/config.yaml"
)

// NewApp builds the command line application writing to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:        serviceName,
		Usage:       "Follow your ride live",
		Description: "Rider-side live trip tracker: push channel, active ride polling, route and cancel flow",
		Writer:      out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to the YAML configuration",
				EnvVars: []string{"RIDE_TRACKER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			trackCommand(),
			quoteCommand(),
			cancelCommand(),
			viewsCommand(),
			tokenCommand(),
		},
	}
}

// load reads the config named by the global flag and builds the logger.
func load(c *cli.Context) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFromFile(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithOptions(serviceName, logger.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
		Out:    c.App.ErrWriter,
	})
	return cfg, log, nil
}

func trackCommand() *cli.Command {
	return &cli.Command{
		Name:    "track",
		Aliases: []string{"t"},
		Usage:   "track the active ride until interrupted",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bridge-port", Usage: "serve the local HTTP bridge on this port (overrides config)"},
			&cli.StringFlag{Name: "car-color", Usage: "driver marker colour: black | red | silver"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := load(c)
			if err != nil {
				return err
			}
			if c.IsSet("bridge-port") {
				cfg.Bridge.Port = c.Int("bridge-port")
			}
			if c.IsSet("car-color") {
				cfg.Tracker.CarColor = strings.ToLower(c.String("car-color"))
			}
			return trackerapp.Run(c.Context, cfg, log)
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Aliases:   []string{"q"},
		Usage:     "price a ride between two points",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pickup", Required: true, Usage: `"lat,lng" or "lat,lng@Name"`},
			&cli.StringFlag{Name: "dropoff", Required: true, Usage: `"lat,lng" or "lat,lng@Name"`},
			&cli.StringFlag{Name: "move-pickup", Usage: `drop the pickup marker at "lat,lng" and re-quote`},
			&cli.StringFlag{Name: "move-dropoff", Usage: `drop the dropoff marker at "lat,lng" and re-quote`},
		},
		Action: func(c *cli.Context) error {
			req, err := quoteRequest(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			cfg, log, err := load(c)
			if err != nil {
				return err
			}
			_, err = plannerapp.Quote(c.Context, cfg, log, req, c.App.Writer)
			return err
		},
	}
}

func quoteRequest(c *cli.Context) (plannerapp.Request, error) {
	var (
		req plannerapp.Request
		err error
	)
	if req.Pickup, err = ParsePlace(c.String("pickup")); err != nil {
		return req, fmt.Errorf("--pickup: %w", err)
	}
	if req.Dropoff, err = ParsePlace(c.String("dropoff")); err != nil {
		return req, fmt.Errorf("--dropoff: %w", err)
	}
	if req.MovePickup, err = optionalPoint(c, "move-pickup"); err != nil {
		return req, err
	}
	if req.MoveDropoff, err = optionalPoint(c, "move-dropoff"); err != nil {
		return req, err
	}
	return req, nil
}

func optionalPoint(c *cli.Context, name string) (*trip.Point, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	p, err := ParsePoint(c.String(name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &p, nil
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "cancel the active ride",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reason",
				Usage: "one of: " + strings.Join(cancel.Reasons, " | "),
			},
		},
		Action: func(c *cli.Context) error {
			reason := strings.TrimSpace(c.String("reason"))
			if reason == "" {
				return cli.Exit(cancel.MsgReasonRequired, 2)
			}
			cfg, log, err := load(c)
			if err != nil {
				return err
			}
			err = trackerapp.Cancel(c.Context, cfg, log, reason, c.App.Writer)
			if errors.Is(err, cancel.ErrUnknownReason) {
				return cli.Exit(fmt.Sprintf("unknown reason %q, use one of: %s", reason, strings.Join(cancel.Reasons, " | ")), 2)
			}
			return err
		},
	}
}

func viewsCommand() *cli.Command {
	return &cli.Command{
		Name:  "views",
		Usage: "print trip views published to RabbitMQ",
		Action: func(c *cli.Context) error {
			cfg, log, err := load(c)
			if err != nil {
				return err
			}
			return trackerapp.TailViews(c.Context, cfg, log, c.App.Writer)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a rider token for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user-id", Required: true, Usage: "rider id (token subject)"},
			&cli.StringFlag{Name: "role", Value: "PASSENGER", Usage: "PASSENGER | RIDER"},
			&cli.StringFlag{Name: "secret", Required: true, Usage: "HS256 secret", EnvVars: []string{"RIDE_TRACKER_JWT_SECRET"}},
			&cli.DurationFlag{Name: "ttl", Value: 2 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			token, claims, err := GenerateRiderToken(c.String("secret"), c.String("user-id"), c.String("role"), c.Duration("ttl"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			w := c.App.Writer
			fmt.Fprintln(w, "TOKEN:")
			fmt.Fprintln(w, token)
			fmt.Fprintln(w, "\nCLAIMS:")
			fmt.Fprintf(w, "  sub:  %s\n", claims.Subject)
			fmt.Fprintf(w, "  role: %s\n", claims.Role)
			fmt.Fprintf(w, "  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
