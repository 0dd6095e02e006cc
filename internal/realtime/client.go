package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

type Config struct {
	// MaxConnectAttempts bounds the connect retry loop. After it is
	// exhausted the client stays disconnected until Connect is called
	// again.
	MaxConnectAttempts int
	// RetryDelay is the fixed delay between connect attempts.
	RetryDelay time.Duration
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConnectAttempts: 5,
		RetryDelay:         2 * time.Second,
		ConnectTimeout:     10 * time.Second,
	}
}

// Client maintains one persistent connection to the realtime event server,
// shared by all callers. It is constructed once at the application's
// composition root and injected wherever live product events are consumed.
//
// Delivery is best-effort, at-most-once per registered callback per event
// occurrence. There is no replay across a disconnect/reconnect cycle.
type Client struct {
	transport Transport
	cfg       Config
	logger    *logger.Logger

	mu        sync.Mutex
	connected bool
	stop      chan struct{}
	rooms     map[string]struct{}
	handlers  map[string]map[int]func(json.RawMessage)
	nextID    int
}

func NewClient(transport Transport, cfg Config, log *logger.Logger) *Client {
	if cfg.MaxConnectAttempts <= 0 {
		cfg.MaxConnectAttempts = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Client{
		transport: transport,
		cfg:       cfg,
		logger:    log,
		rooms:     make(map[string]struct{}),
		handlers:  make(map[string]map[int]func(json.RawMessage)),
	}
}

// Connect establishes the shared connection. It is idempotent: when the
// client is already connected it returns immediately, and a concurrent
// caller blocks until the in-flight attempt settles. On failure the client
// is left disconnected so a subsequent call retries from scratch. Rooms
// joined before a disconnect are re-joined on success.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		return ErrNoTransport
	}
	if c.connected {
		return nil
	}

	var err error
	for attempt := 1; attempt <= c.cfg.MaxConnectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		err = c.transport.Connect(ctx)
		cancel()
		if err == nil {
			break
		}
		c.logger.Warn("REALTIME", fmt.Sprintf("Connect attempt %d/%d failed: %v", attempt, c.cfg.MaxConnectAttempts, err))
		if attempt < c.cfg.MaxConnectAttempts {
			time.Sleep(c.cfg.RetryDelay)
		}
	}
	if err != nil {
		c.logger.Error("REALTIME", fmt.Sprintf("Giving up after %d connect attempts: %v", c.cfg.MaxConnectAttempts, err))
		return fmt.Errorf("realtime: connect failed after %d attempts: %w", c.cfg.MaxConnectAttempts, err)
	}

	c.connected = true
	c.stop = make(chan struct{})
	go c.dispatchLoop(c.transport.Messages(), c.stop)

	for room := range c.rooms {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		if joinErr := c.transport.JoinRoom(ctx, room); joinErr != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Failed to re-join room %s: %v", room, joinErr))
		}
		cancel()
	}

	c.logger.Info("REALTIME", "Connected to realtime event server")
	return nil
}

// Disconnect tears down the transport and clears connection state so a
// subsequent Connect performs a fresh handshake. Registered callbacks and
// joined-room bookkeeping deliberately survive: reconnecting resumes all
// prior subscriptions. Callers wanting a clean slate use the unsubscribe
// funcs they hold.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	close(c.stop)
	transport := c.transport
	c.mu.Unlock()

	c.logger.Info("REALTIME", "Disconnecting from realtime event server")
	return transport.Close()
}

// JoinProductRoom subscribes the shared connection to one product's events.
// This is a best-effort side channel: an invalid id or a failed join is
// logged and swallowed, never surfaced to the primary user action.
func (c *Client) JoinProductRoom(productID int64) {
	if productID <= 0 {
		c.logger.Warn("REALTIME", fmt.Sprintf("Ignoring join for invalid product id %d", productID))
		return
	}
	if err := c.Connect(); err != nil {
		c.logger.Warn("REALTIME", fmt.Sprintf("Cannot join product room %d: %v", productID, err))
		return
	}

	room := ProductRoom(productID)
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	transport := c.transport
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()
	if err := transport.JoinRoom(ctx, room); err != nil {
		c.logger.Warn("REALTIME", fmt.Sprintf("Failed to join room %s: %v", room, err))
	}
}

// LeaveProductRoom unsubscribes from a product's events. It never triggers
// a connect: when the client is not connected there is nothing to leave.
func (c *Client) LeaveProductRoom(productID int64) {
	if productID <= 0 {
		c.logger.Warn("REALTIME", fmt.Sprintf("Ignoring leave for invalid product id %d", productID))
		return
	}

	room := ProductRoom(productID)
	c.mu.Lock()
	delete(c.rooms, room)
	if !c.connected {
		c.mu.Unlock()
		return
	}
	transport := c.transport
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()
	if err := transport.LeaveRoom(ctx, room); err != nil {
		c.logger.Warn("REALTIME", fmt.Sprintf("Failed to leave room %s: %v", room, err))
	}
}

// OnProductReviewUpdate registers a callback for review snapshots pushed to
// joined rooms. The returned func removes only this callback; other
// registrations for the same event keep receiving.
func (c *Client) OnProductReviewUpdate(fn func(models.ReviewUpdate)) (unsubscribe func()) {
	return c.on(models.EventProductReviewUpdate, func(data json.RawMessage) {
		var update models.ReviewUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Dropping malformed %s payload: %v", models.EventProductReviewUpdate, err))
			return
		}
		fn(update)
	})
}

// OnProductRatingUpdate registers a callback for rating aggregate deltas.
func (c *Client) OnProductRatingUpdate(fn func(models.RatingUpdate)) (unsubscribe func()) {
	return c.on(models.EventProductRatingUpdate, func(data json.RawMessage) {
		var update models.RatingUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Dropping malformed %s payload: %v", models.EventProductRatingUpdate, err))
			return
		}
		fn(update)
	})
}

// OnProductLikeUpdate registers a callback for like count deltas.
func (c *Client) OnProductLikeUpdate(fn func(models.LikeUpdate)) (unsubscribe func()) {
	return c.on(models.EventProductLikeUpdate, func(data json.RawMessage) {
		var update models.LikeUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Dropping malformed %s payload: %v", models.EventProductLikeUpdate, err))
			return
		}
		fn(update)
	})
}

func (c *Client) on(event string, fn func(json.RawMessage)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]func(json.RawMessage))
	}
	c.handlers[event][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if set, ok := c.handlers[event]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(c.handlers, event)
			}
		}
	}
}

func (c *Client) dispatchLoop(messages <-chan Message, stop <-chan struct{}) {
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.dispatch(msg)
		case <-stop:
			return
		}
	}
}

func (c *Client) dispatch(msg Message) {
	c.mu.Lock()
	callbacks := make([]func(json.RawMessage), 0, len(c.handlers[msg.Event]))
	for _, fn := range c.handlers[msg.Event] {
		callbacks = append(callbacks, fn)
	}
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(msg.Data)
	}
}
