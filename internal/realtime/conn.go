package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
)

// Conn is one live stream held by the registry. Frames queued on it are
// written to the transport by the goroutine serving the request.
type Conn struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   notifications.Role

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(userID uuid.UUID, role notifications.Role, buffer int) *Conn {
	return &Conn{
		ID:       uuid.New(),
		UserID:   userID,
		Role:     role,
		outbound: make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

// Frames yields encoded frames in enqueue order.
func (c *Conn) Frames() <-chan []byte { return c.outbound }

// Done is closed once the connection is superseded, unregistered or shut down.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue never blocks. It reports false when the connection is closed or
// its buffer is full.
func (c *Conn) enqueue(frame []byte) bool {
	if c.closed() {
		return false
	}
	select {
	case c.outbound <- frame:
		return true
	default:
		return false
	}
}

// close is idempotent. outbound is left open so a concurrent enqueue can
// never panic; the serving goroutine stops on done instead.
func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
