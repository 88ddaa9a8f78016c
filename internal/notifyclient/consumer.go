package notifyclient

import (
	"context"

	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

// Consumer keeps a Store in step with the server: one catch-up fetch, then
// live frames prepended as they arrive. It does not reconnect on its own;
// see Reconnecting.
type Consumer struct {
	log       *logger.Logger
	client    Client
	store     *Store
	onLive    func(Notification)
	onCatchUp func([]Notification)
}

type ConsumerOption func(*Consumer)

// WithOnLive registers a callback run after each live notification lands in
// the store.
func WithOnLive(fn func(Notification)) ConsumerOption {
	return func(c *Consumer) { c.onLive = fn }
}

// WithOnCatchUp registers a callback run with the store contents after each
// successful catch-up fetch.
func WithOnCatchUp(fn func([]Notification)) ConsumerOption {
	return func(c *Consumer) { c.onCatchUp = fn }
}

func NewConsumer(log *logger.Logger, client Client, store *Store, opts ...ConsumerOption) *Consumer {
	if store == nil {
		store = NewStore()
	}
	c := &Consumer{
		log:    log.With("service", "NotificationConsumer"),
		client: client,
		store:  store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Store() *Store { return c.store }

// Run performs the catch-up fetch and then reads the live stream until ctx
// is cancelled or the connection ends. Without a credential nothing is
// attempted.
func (c *Consumer) Run(ctx context.Context) error {
	return c.session(ctx, nil)
}

func (c *Consumer) session(ctx context.Context, onConnected func()) error {
	if !c.client.Authenticated() {
		return nil
	}
	c.Refetch(ctx)
	return c.client.Stream(ctx, onConnected, c.receive)
}

func (c *Consumer) receive(n Notification) {
	c.store.Prepend(n)
	if c.onLive != nil {
		c.onLive(n)
	}
}

// Refetch replaces the store with the server's list. A failed fetch leaves
// the store untouched.
func (c *Consumer) Refetch(ctx context.Context) {
	list, err := c.client.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warn("catch-up fetch failed", "error", err)
		}
		return
	}
	c.store.Replace(list)
	if c.onCatchUp != nil {
		c.onCatchUp(c.store.Snapshot())
	}
}

// The mutations below update the store first and then tell the server, even
// when the id is not held locally. Server errors are logged and otherwise
// ignored; local notifications never reach the server.

func (c *Consumer) MarkRead(ctx context.Context, id string) {
	c.store.MarkRead(id)
	if IsLocalID(id) {
		return
	}
	c.ignore("mark read", c.client.MarkRead(ctx, id))
}

func (c *Consumer) MarkAllRead(ctx context.Context) {
	c.store.MarkAllRead()
	c.ignore("mark all read", c.client.MarkAllRead(ctx))
}

func (c *Consumer) Delete(ctx context.Context, id string) {
	c.store.Remove(id)
	if IsLocalID(id) {
		return
	}
	c.ignore("delete", c.client.Delete(ctx, id))
}

func (c *Consumer) Clear(ctx context.Context) {
	c.store.Clear()
	c.ignore("clear", c.client.Clear(ctx))
}

func (c *Consumer) AddLocal(n Notification) Notification {
	return c.store.AddLocal(n)
}

func (c *Consumer) ignore(op string, err error) {
	if err != nil {
		c.log.Debug("notification "+op+" failed", "error", err)
	}
}
