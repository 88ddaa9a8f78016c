package realtime

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

const (
	DefaultHeartbeat = 30 * time.Second
	DefaultBuffer    = 16
)

// Observer receives registry activity. The zero Registry uses a no-op.
type Observer interface {
	ConnectionsChanged(n int)
	FrameWritten(kind string)
	FrameDropped()
}

type nopObserver struct{}

func (nopObserver) ConnectionsChanged(int) {}
func (nopObserver) FrameWritten(string)    {}
func (nopObserver) FrameDropped()          {}

type Option func(*Registry)

func WithHeartbeat(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.heartbeat = d
		}
	}
}

func WithBuffer(n int) Option {
	return func(r *Registry) {
		if n >= 2 {
			r.buffer = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry maps each connected user to exactly one live stream. The most
// recent registration for a user always wins.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn

	heartbeat time.Duration
	buffer    int
	observer  Observer
	log       *logger.Logger
}

func NewRegistry(log *logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		conns:     make(map[uuid.UUID]*Conn),
		heartbeat: DefaultHeartbeat,
		buffer:    DefaultBuffer,
		observer:  nopObserver{},
		log:       log.With("component", "ConnectionRegistry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a new connection for userID, closing any connection it
// replaces, and queues the connected marker on the new one only.
func (r *Registry) Register(userID uuid.UUID, role notifications.Role) *Conn {
	c := newConn(userID, role, r.buffer)
	c.enqueue(connectedFrame)

	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = c
	n := len(r.conns)
	r.mu.Unlock()

	if prev != nil {
		prev.close()
		r.log.Debug("SSE connection superseded", "user_id", userID, "prev_conn", prev.ID, "conn", c.ID)
	}
	r.observer.ConnectionsChanged(n)
	r.log.Debug("SSE connection registered", "user_id", userID, "role", role, "conn", c.ID)
	return c
}

// Unregister removes and closes whatever connection userID holds. Safe to
// call any number of times.
func (r *Registry) Unregister(userID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.conns[userID]
	if ok {
		delete(r.conns, userID)
	}
	n := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	r.observer.ConnectionsChanged(n)
	r.log.Debug("SSE connection unregistered", "user_id", userID, "conn", c.ID)
}

// Release closes c and removes it only if it is still the registered
// connection for its user, so a superseded stream cannot evict its successor.
func (r *Registry) Release(c *Conn) {
	if c == nil {
		return
	}
	c.close()

	r.mu.Lock()
	removed := false
	if cur, ok := r.conns[c.UserID]; ok && cur == c {
		delete(r.conns, c.UserID)
		removed = true
	}
	n := len(r.conns)
	r.mu.Unlock()

	if removed {
		r.observer.ConnectionsChanged(n)
		r.log.Debug("SSE connection released", "user_id", c.UserID, "conn", c.ID)
	}
}

// SendToUser queues payload for userID's live connection. It reports
// whether a frame was queued; absence of a connection is not an error.
func (r *Registry) SendToUser(userID uuid.UUID, payload any) bool {
	frame, err := EncodeFrame(payload)
	if err != nil {
		r.log.Warn("Dropping SSE payload; encode failed", "error", err)
		return false
	}

	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.deliver(c, frame)
}

// SendToRole queues payload on every connection whose role matches, or on
// every connection when role is RoleAll. It returns the number queued.
func (r *Registry) SendToRole(role notifications.Role, payload any) int {
	frame, err := EncodeFrame(payload)
	if err != nil {
		r.log.Warn("Dropping SSE payload; encode failed", "error", err)
		return 0
	}

	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c.Role.Matches(role) {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if r.deliver(c, frame) {
			sent++
		}
	}
	return sent
}

func (r *Registry) deliver(c *Conn, frame []byte) bool {
	if c.enqueue(frame) {
		return true
	}
	r.observer.FrameDropped()
	r.log.Warn("Dropping SSE frame; connection closed or outbound buffer full", "user_id", c.UserID, "conn", c.ID)
	return false
}

// CloseAll closes and forgets every connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[uuid.UUID]*Conn)
	r.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	r.observer.ConnectionsChanged(0)
	if len(conns) > 0 {
		r.log.Info("SSE connections closed", "count", len(conns))
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) Connected(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// ServeHTTP streams frames for an already authenticated user until the
// client goes away, the connection is closed by the registry, or a write fails.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request, userID uuid.UUID, role notifications.Role) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	conn := r.Register(userID, role)
	defer r.Release(conn)

	heartbeat := time.NewTicker(r.heartbeat)
	defer heartbeat.Stop()

	ctx := req.Context()
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("SSE client context done", "conn", conn.ID, "err", ctx.Err())
			return
		case <-conn.Done():
			return
		case <-heartbeat.C:
			if err := r.write(w, flusher, heartbeatFrame, FrameKindHeartbeat); err != nil {
				r.log.Debug("SSE heartbeat write failed", "conn", conn.ID, "error", err)
				return
			}
		case frame := <-conn.Frames():
			if err := r.write(w, flusher, frame, FrameKindData); err != nil {
				r.log.Debug("SSE frame write failed", "conn", conn.ID, "error", err)
				return
			}
		}
	}
}

func (r *Registry) write(w http.ResponseWriter, flusher http.Flusher, frame []byte, kind string) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", kind, err)
	}
	flusher.Flush()
	r.observer.FrameWritten(kind)
	return nil
}
