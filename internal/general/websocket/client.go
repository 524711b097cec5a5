package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ride-tracker/internal/general/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	pingInterval     = 30 * time.Second
	readTimeout      = 60 * time.Second
	readLimit        = 1 << 20 // 1 MiB
)

var ErrEmptyEndpoint = errors.New("websocket endpoint is empty")

// Handler receives every inbound message. Frames holding several newline-delimited
// messages are split before the handler is called.
type Handler func(ctx context.Context, msg []byte)

// ReconnectPolicy controls redialing after a transport failure.
type ReconnectPolicy struct {
	Enabled         bool
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64 // 0 means unlimited
}

// Options configures a Client.
type Options struct {
	URL       string      // e.g. ws://localhost:8081/ws
	Header    http.Header // sent with the handshake (Authorization, Cookie)
	Reconnect ReconnectPolicy
	Dialer    *websocket.Dialer
}

// Client owns the single push connection of the rider.
type Client struct {
	logger  *logger.Logger
	opts    Options
	handler Handler
	dialer  *websocket.Dialer

	lifeMu sync.Mutex // serializes Open and Close

	mu        sync.Mutex
	state     ConnectionState
	riderID   string
	conn      *websocket.Conn
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []func(ConnectionState)

	writeMu sync.Mutex
}

// NewClient creates a Client that is Disconnected until Open is called.
func NewClient(log *logger.Logger, opts Options, handler Handler) *Client {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		}
	}
	if handler == nil {
		handler = func(context.Context, []byte) {}
	}
	return &Client{logger: log, opts: opts, handler: handler, dialer: dialer}
}

// OnState registers a listener called on every state transition.
// Listeners run on the connection goroutine and must not block.
func (c *Client) OnState(fn func(ConnectionState)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RiderID returns the identity the connection is open for.
func (c *Client) RiderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.riderID
}

// Open connects for riderID. An empty id closes the connection. Opening for another
// rider first closes the old connection and waits for its reader to exit.
func (c *Client) Open(ctx context.Context, riderID string) error {
	riderID = strings.TrimSpace(riderID)

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if riderID == "" {
		c.stop()
		return nil
	}

	endpoint, err := c.endpoint(riderID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.riderID == riderID && c.done != nil {
		select {
		case <-c.done:
		default:
			c.mu.Unlock()
			return nil
		}
	}
	c.mu.Unlock()

	c.stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.riderID = riderID
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(runCtx, endpoint, done)
	return nil
}

// Close tears the connection down and waits for the reader to exit. Safe to call repeatedly.
func (c *Client) Close() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	c.stop()
}

func (c *Client) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done, c.riderID = nil, nil, ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.setState(Disconnected)
}

// Send writes payload as JSON. It returns false without queuing when the socket is not open.
func (c *Client) Send(payload any) bool {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state != Connected || conn == nil {
		return false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error(context.Background(), "ws_send_marshal_failed", "Failed to encode outbound message", err, nil)
		return false
	}

	if err := c.wsWriteMessage(conn, websocket.TextMessage, data); err != nil {
		c.logger.Error(context.Background(), "ws_send_failed", "Failed to write outbound message", err, nil)
		return false
	}
	return true
}

func (c *Client) endpoint(riderID string) (string, error) {
	if strings.TrimSpace(c.opts.URL) == "" {
		return "", ErrEmptyEndpoint
	}
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", fmt.Errorf("parse websocket endpoint: %w", err)
	}
	q := u.Query()
	q.Set("rider_id", riderID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// run dials, reads until the connection dies and redials per the reconnect policy.
func (c *Client) run(ctx context.Context, endpoint string, done chan struct{}) {
	defer close(done)
	defer c.setState(Disconnected)

	bo := c.newBackOff(ctx)
	attempt := 0

	for {
		if attempt == 0 {
			c.setState(Connecting)
		} else {
			c.setState(Reconnecting)
		}

		connected, err := c.session(ctx, endpoint)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Error(ctx, "ws_transport_error", "Push connection failed", err, map[string]any{
				"attempt": attempt,
			})
		}
		if !c.opts.Reconnect.Enabled {
			return
		}
		if connected {
			bo.Reset()
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			c.logger.Info(ctx, "ws_reconnect_exhausted", "Giving up on push connection", map[string]any{
				"attempts": attempt,
			})
			return
		}

		attempt++
		c.setState(Reconnecting)
		c.logger.Info(ctx, "ws_reconnect_scheduled", "Reconnecting push channel", map[string]any{
			"attempt":  attempt,
			"delay_ms": wait.Milliseconds(),
		})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	policy := c.opts.Reconnect

	eb := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		eb.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		eb.MaxInterval = policy.MaxInterval
	}
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0
	eb.Reset()

	var b backoff.BackOff = eb
	if policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(eb, policy.MaxAttempts)
	}
	return backoff.WithContext(b, ctx)
}

// session runs one connection. connected reports whether the handshake succeeded.
func (c *Client) session(ctx context.Context, endpoint string) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, endpoint, c.opts.Header)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", redact(endpoint), err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(Connected)

	c.logger.Info(ctx, "ws_connected", "Push channel connected", nil)

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	// ping every 30s; a failed ping closes the socket to unblock the reader
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := c.wsWritePing(conn); err != nil {
					c.logger.Error(ctx, "ws_ping_failed", "Failed to send ping", err, nil)
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// identity cleared or shutdown: say goodbye and unblock the reader
	go func() {
		defer wg.Done()
		select {
		case <-stop:
		case <-ctx.Done():
			c.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			_ = conn.Close()
		}
	}()

	defer func() {
		close(stop)
		wg.Wait()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				c.logger.Info(ctx, "ws_connection_closed", "Push channel closed", nil)
				return true, nil
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.logger.Info(ctx, "ws_server_closed", "Server closed the push channel", nil)
				return true, nil
			default:
				return true, fmt.Errorf("read: %w", err)
			}
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		for _, line := range bytes.Split(payload, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			c.handler(ctx, line)
		}
	}
}

func (c *Client) setState(next ConnectionState) {
	c.mu.Lock()
	if c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	listeners := append([]func(ConnectionState){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// redact hides the query string (it carries the rider id) from logs.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
