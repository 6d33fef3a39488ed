// Package broadcast implements named fan-out channels. A message posted
// on a Channel reaches every other open Channel with the same name, in
// posting order, without ever blocking the poster. Messages are opaque
// byte slices (JSON in practice) so receivers never share memory with the
// sender.
package broadcast

import (
	"sync"
)

// Hub is a namespace of broadcast channels. It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	channels map[string][]*Channel
}

// NewHub creates an empty namespace.
func NewHub() *Hub {
	return &Hub{channels: make(map[string][]*Channel)}
}

var (
	defaultOnce sync.Once
	defaultHub  *Hub
)

// DefaultHub returns the process-wide namespace.
func DefaultHub() *Hub {
	defaultOnce.Do(func() { defaultHub = NewHub() })
	return defaultHub
}

// Open joins the channel called name.
func (h *Hub) Open(name string) *Channel {
	c := h.join(name, true)
	go c.pump()
	return c
}

// Publisher joins the channel called name for posting only. Messages from
// other members are not queued for it, and Messages is already closed.
func (h *Hub) Publisher(name string) *Channel {
	c := h.join(name, false)
	close(c.out)
	return c
}

func (h *Hub) join(name string, receive bool) *Channel {
	c := &Channel{
		hub:     h,
		name:    name,
		receive: receive,
		wake:    make(chan struct{}, 1),
		out:     make(chan []byte),
		done:    make(chan struct{}),
		drain:   make(chan struct{}),
	}
	h.mu.Lock()
	h.channels[name] = append(h.channels[name], c)
	h.mu.Unlock()
	return c
}

// Members returns the number of open channels called name.
func (h *Hub) Members(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[name])
}

func (h *Hub) remove(c *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.channels[c.name]
	for i, cur := range list {
		if cur == c {
			h.channels[c.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(h.channels[c.name]) == 0 {
		delete(h.channels, c.name)
	}
}

func (h *Hub) deliver(from *Channel, msg []byte) {
	h.mu.Lock()
	targets := append([]*Channel(nil), h.channels[from.name]...)
	h.mu.Unlock()
	for _, c := range targets {
		if c == from || !c.receive {
			continue
		}
		c.enqueue(msg)
	}
}

// Channel is one member of a named broadcast channel.
type Channel struct {
	hub     *Hub
	name    string
	receive bool

	mu      sync.Mutex
	pending [][]byte
	closed  bool

	wake      chan struct{}
	out       chan []byte
	done      chan struct{}
	drain     chan struct{}
	leaveOnce sync.Once
	closeOnce sync.Once
	drainOnce sync.Once
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Post copies msg and hands it to every other member. It never blocks on
// receivers. Posting on a closed channel does nothing.
func (c *Channel) Post(msg []byte) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.hub.deliver(c, append([]byte(nil), msg...))
}

// Messages returns the receive side. It is closed after Close, or after
// Drain once the queued messages have been read.
func (c *Channel) Messages() <-chan []byte {
	return c.out
}

// Close leaves the channel. Undelivered messages are dropped.
func (c *Channel) Close() {
	c.leave()
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		close(c.done)
	})
}

// Drain leaves the channel but keeps the messages that already reached it.
// They are still handed out on Messages, which is closed after the last
// one. The receiver must keep reading until then, or call Close.
func (c *Channel) Drain() {
	c.leave()
	c.drainOnce.Do(func() { close(c.drain) })
}

func (c *Channel) leave() {
	c.leaveOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.hub.remove(c)
	})
}

func (c *Channel) enqueue(msg []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, msg)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Channel) take() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.pending
	c.pending = nil
	return batch
}

func (c *Channel) send(batch [][]byte) bool {
	for _, msg := range batch {
		select {
		case c.out <- msg:
		case <-c.done:
			return false
		}
	}
	return true
}

func (c *Channel) pump() {
	defer close(c.out)
	for {
		if !c.send(c.take()) {
			return
		}
		select {
		case <-c.wake:
		case <-c.drain:
			// Nothing is enqueued once the channel has left the hub.
			c.send(c.take())
			return
		case <-c.done:
			return
		}
	}
}
