package core

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openmortal/mortalnet/internal/proto"
)

const (
	// maxLineBytes is the hard frame limit; an oversized line is fatal.
	maxLineBytes = 1024
	// sendBufSize bounds the outbound queue. A full queue disconnects.
	sendBufSize = 64
)

var clientIDCounter uint64

// Client holds all state for one TCP connection. Scalar fields below mu are
// read from both the hub loop and the client's own pumps.
type Client struct {
	id       uint64
	ip       string
	conn     net.Conn
	send     chan string // closed by the hub after Leave
	joinedAt time.Time

	mu           sync.Mutex
	nick         string
	confirmed    bool
	status       string
	lastActivity time.Time
	bucket       tokenBucket
	strikes      int
}

// NewClient wraps an accepted connection. IDs are monotonic and never
// reused for the process lifetime.
func NewClient(conn net.Conn, ip string) *Client {
	return &Client{
		id:           atomic.AddUint64(&clientIDCounter, 1),
		ip:           ip,
		conn:         conn,
		send:         make(chan string, sendBufSize),
		joinedAt:     time.Now(),
		lastActivity: time.Now(),
		status:       proto.StatusChat,
	}
}

// ID returns the client's unique id.
func (c *Client) ID() uint64 { return c.id }

// IP returns the client's source address.
func (c *Client) IP() string { return c.ip }

// Nick returns the current nick under the client lock.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// Confirmed reports whether the client has registered a nick.
func (c *Client) Confirmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// Status returns the current presence status.
func (c *Client) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// readPump reads newline-delimited frames and forwards them as hub events.
// Exactly one Leave event is emitted on every exit path.
func (c *Client) readPump(h *Hub) {
	defer func() {
		// Close here too so server-initiated exits (idle timeout, oversized
		// line) actually drop the socket, not just the registry entry.
		c.conn.Close()
		h.events <- Event{Kind: EventLeave, Client: c}
	}()

	scanner := newLineScanner(c.conn)

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout)); err != nil {
			h.log.Debug().Uint64("client", c.id).Err(err).Msg("set read deadline failed")
			return
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				h.log.Debug().Uint64("client", c.id).Err(err).Msg("read error")
			}
			return
		}

		raw := scanner.Bytes()
		if len(raw) > maxLineBytes {
			h.log.Warn().Uint64("client", c.id).Str("ip", c.ip).Msg("oversized line, disconnecting")
			return
		}

		msg := proto.Parse(raw)
		if msg == nil {
			continue
		}

		c.touch()
		h.events <- Event{Kind: EventMessage, Client: c, Msg: msg}
	}
}

// writePump drains the send queue to the socket. On a write error or missed
// deadline it discards the rest of the queue so the hub never blocks on a
// stuck connection, then exits when the hub closes the queue.
func (c *Client) writePump(h *Hub) {
	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
			h.log.Debug().Uint64("client", c.id).Err(err).Msg("set write deadline failed")
			c.drain()
			return
		}
		if _, err := fmt.Fprint(c.conn, msg); err != nil {
			h.log.Debug().Uint64("client", c.id).Err(err).Msg("write error")
			c.drain()
			return
		}
	}
}

func (c *Client) drain() {
	for range c.send {
	}
}

// enqueue attempts a non-blocking push onto the send queue. Slow consumers
// are disconnected rather than allowed to back-pressure the hub. Only the
// hub goroutine calls enqueue, so it is ordered against close(c.send).
func (c *Client) enqueue(h *Hub, msg string) {
	select {
	case c.send <- msg:
	default:
		h.log.Warn().Uint64("client", c.id).Str("nick", c.Nick()).Msg("send buffer full, disconnecting")
		c.conn.Close()
	}
}

// consumeToken runs the rate limiter and tracks strikes. It returns whether
// the command may proceed and the updated strike count.
func (c *Client) consumeToken() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bucket.allow() {
		c.strikes = 0
		return true, 0
	}
	c.strikes++
	return false, c.strikes
}
