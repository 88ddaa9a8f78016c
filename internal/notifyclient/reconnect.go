package notifyclient

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

// Reconnecting reruns a Consumer session whenever the stream ends, waiting
// an exponential backoff between attempts. Each attempt starts with a fresh
// catch-up fetch. The backoff resets once a session reaches the server's
// liveness marker.
type Reconnecting struct {
	log      *logger.Logger
	consumer *Consumer
	newBack  func() backoff.BackOff
}

type ReconnectOption func(*Reconnecting)

func WithBackOff(newBack func() backoff.BackOff) ReconnectOption {
	return func(r *Reconnecting) {
		if newBack != nil {
			r.newBack = newBack
		}
	}
}

func NewReconnecting(log *logger.Logger, consumer *Consumer, opts ...ReconnectOption) *Reconnecting {
	r := &Reconnecting{
		log:      log.With("service", "NotificationReconnect"),
		consumer: consumer,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run returns nil when ctx is cancelled. A 401 or 403 from the stream ends
// the loop with that error since retrying cannot fix it.
func (r *Reconnecting) Run(ctx context.Context) error {
	if !r.consumer.client.Authenticated() {
		return nil
	}
	b := r.newBack()
	b.Reset()
	for attempt := 1; ; attempt++ {
		var live atomic.Bool
		err := r.consumer.session(ctx, func() { live.Store(true) })
		if ctx.Err() != nil {
			return nil
		}
		if permanent(err) {
			return err
		}
		if live.Load() {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return errors.New("notifyclient: reconnect attempts exhausted")
		}
		r.log.Info("notification stream ended, reconnecting", "attempt", attempt, "wait", wait.String(), "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func permanent(err error) bool {
	if errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}
