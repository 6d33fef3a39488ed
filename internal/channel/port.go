// Package channel provides the ordered, single-consumer message port used
// between annotations and the manager that owns them.
package channel

// Port delivers posted messages to one handler in FIFO order. A message
// posted while the handler is running is queued and handled after it
// returns, so the handler never re-enters itself. Port is meant for a
// single event loop and does no locking.
type Port[T any] struct {
	queue    []T
	handler  func(T)
	draining bool
	closed   bool
}

// NewPort returns an open port with no handler. Messages posted before a
// handler is installed are held until OnMessage is called.
func NewPort[T any]() *Port[T] {
	return &Port[T]{}
}

// OnMessage installs the handler and flushes held messages. Passing nil
// detaches the current handler.
func (p *Port[T]) OnMessage(fn func(T)) {
	p.handler = fn
	p.drain()
}

// Post queues msg. Posts on a closed port are dropped.
func (p *Port[T]) Post(msg T) {
	if p.closed {
		return
	}
	p.queue = append(p.queue, msg)
	p.drain()
}

// Close detaches the handler and drops anything still queued.
func (p *Port[T]) Close() {
	p.closed = true
	p.handler = nil
	p.queue = nil
}

// Closed reports whether Close was called.
func (p *Port[T]) Closed() bool {
	return p.closed
}

// Pending returns the number of queued messages.
func (p *Port[T]) Pending() int {
	return len(p.queue)
}

func (p *Port[T]) drain() {
	if p.draining {
		return
	}
	p.draining = true
	defer func() { p.draining = false }()
	for len(p.queue) > 0 && p.handler != nil {
		msg := p.queue[0]
		var zero T
		p.queue[0] = zero
		p.queue = p.queue[1:]
		p.handler(msg)
	}
}
