package notifyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

const defaultRequestTimeout = 15 * time.Second

var ErrNotAuthenticated = errors.New("notifyclient: no credential")

// StatusError is a non-2xx answer from the notification API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notification api http %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Client talks to the notification API of a single authenticated user.
type Client interface {
	Authenticated() bool
	List(ctx context.Context) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	// Stream reads the live stream until ctx is cancelled or the transport
	// ends, both of which return nil, as does any non-2xx reply other than
	// 401 or 403. Those two come back as *StatusError. onConnected fires on
	// the liveness marker and may be nil. Frames that do not decode are
	// skipped.
	Stream(ctx context.Context, onConnected func(), onNotification func(Notification)) error
}

type Option func(*client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

type client struct {
	log            *logger.Logger
	baseURL        string
	token          string
	httpClient     *http.Client
	requestTimeout time.Duration
}

// New builds a client for baseURL (for example http://localhost:5000/api).
// The http.Client carries no overall timeout; REST calls are bounded per
// request and the stream stays open until cancelled.
func New(log *logger.Logger, baseURL, token string, opts ...Option) Client {
	c := &client{
		log:            log.With("service", "NotificationClient"),
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:          strings.TrimSpace(token),
		httpClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Authenticated() bool { return c.token != "" }

func (c *client) List(ctx context.Context) ([]Notification, error) {
	var out struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications", &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (c *client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil)
}

func (c *client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil)
}

func (c *client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil)
}

func (c *client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/notifications", nil)
}

func (c *client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *client) do(ctx context.Context, method, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("notification api decode error: %w", err)
	}
	return nil
}

func (c *client) Stream(ctx context.Context, onConnected func(), onNotification func(Notification)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/notifications/stream")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Debug("notification stream connect failed", "error", err)
		}
		return nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.log.Debug("notification stream unavailable", "status", resp.StatusCode)
		return nil
	}

	readStream(c.log, resp.Body, onConnected, onNotification)
	return nil
}

// readStream pumps r through a Decoder until r fails or ends.
func readStream(log *logger.Logger, r io.Reader, onConnected func(), onNotification func(Notification)) {
	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, payload := range dec.Feed(buf[:n]) {
				dispatch(log, payload, onConnected, onNotification)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("notification stream closed", "error", err)
			}
			return
		}
	}
}

func dispatch(log *logger.Logger, payload []byte, onConnected func(), onNotification func(Notification)) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		log.Debug("skipping malformed frame", "error", err)
		return
	}
	if n.Type == types.TypeConnected {
		if onConnected != nil {
			onConnected()
		}
		return
	}
	if onNotification != nil {
		onNotification(n)
	}
}
