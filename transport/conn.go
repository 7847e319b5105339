// Package transport carries wire packets over a websocket without ever
// blocking the tick goroutine: a read pump and a write pump own the socket,
// and the tick side only touches bounded channels.
package transport

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 16
	sendBufSize    = 256
	inboxSize      = 256
)

var (
	// ErrSendQueueFull means the peer is not draining; the packet was
	// dropped but the connection stays up.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrClosed means the connection is gone.
	ErrClosed = errors.New("connection closed")
	// ErrRateLimited means the peer sent faster than allowed and was cut off.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Link is what a session needs from a connection. Recv never blocks: a nil
// packet with a nil error means nothing is ready this tick.
type Link interface {
	Send(pkt []byte) error
	Recv() ([]byte, error)
	Close() error
	RemoteAddr() (ip string, port int)
}

// Conn is a websocket Link. One binary message is one packet.
type Conn struct {
	ws      *websocket.Conn
	send    chan []byte
	inbox   chan []byte
	closed  chan struct{}
	once    sync.Once
	err     error
	limiter *rate.Limiter
	ip      string
	port    int

	// OnClose runs once, from a pump goroutine, after the socket closes.
	OnClose func()
}

// NewConn wraps ws. A positive perSecond cuts the peer off when it sends
// faster than that (with a one second burst).
func NewConn(ws *websocket.Conn, perSecond int) *Conn {
	c := &Conn{
		ws:     ws,
		send:   make(chan []byte, sendBufSize),
		inbox:  make(chan []byte, inboxSize),
		closed: make(chan struct{}),
	}
	if perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	c.ip, c.port = splitAddr(ws.RemoteAddr())
	return c
}

// Start launches the pumps.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

// RemoteAddr returns the peer's ip and port.
func (c *Conn) RemoteAddr() (string, int) {
	return c.ip, c.port
}

// Send queues pkt without blocking.
func (c *Conn) Send(pkt []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.send <- pkt:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Recv returns the next inbound packet. Packets that arrived before the
// peer went away are still delivered before the close is reported.
func (c *Conn) Recv() ([]byte, error) {
	select {
	case pkt := <-c.inbox:
		return pkt, nil
	default:
	}
	select {
	case <-c.closed:
		// a packet may have landed between the two selects
		select {
		case pkt := <-c.inbox:
			return pkt, nil
		default:
		}
		if c.err != nil {
			return nil, c.err
		}
		return nil, ErrClosed
	default:
		return nil, nil
	}
}

// Close asks the write pump to flush what is queued and hang up.
func (c *Conn) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Conn) shutdown(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.closed)
	})
}

func (c *Conn) readPump() {
	defer c.shutdown(nil)
	c.ws.SetReadLimit(maxMessageSize)
	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.shutdown(ErrRateLimited)
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		select {
		case c.inbox <- msg:
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) writePump() {
	defer func() {
		c.ws.Close()
		if c.OnClose != nil {
			c.OnClose()
		}
	}()
	for {
		select {
		case pkt := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
				c.shutdown(nil)
				return
			}
		case <-c.closed:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, then a close frame.
func (c *Conn) flush() {
	deadline := time.Now().Add(writeWait)
	for {
		select {
		case pkt := <-c.send:
			c.ws.SetWriteDeadline(deadline)
			if err := c.ws.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	p, _ := strconv.Atoi(port)
	return host, p
}
