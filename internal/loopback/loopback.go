// Package loopback provides the in-process transport used for
// local-to-local sync: two endpoints paired so that writes on one are
// delivered as reads on the other, with no network stack involved.
package loopback

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrNotPaired     = errors.New("loopback: endpoint not paired")
	ErrAlreadyPaired = errors.New("loopback: endpoint already paired")
	ErrClosed        = errors.New("loopback: endpoint closed")
)

// receiveBuffer is the number of in-flight messages an endpoint can
// hold before Send blocks.
const receiveBuffer = 64

// endpointIDs numbers endpoints at creation; Connect uses the ids as
// a stable lock order.
var endpointIDs atomic.Uint64

// Endpoint is one side of an in-process transport pair. It is created
// unpaired; traffic flows only after a Provider connects it to a peer.
type Endpoint struct {
	id uint64

	mu   sync.Mutex
	peer *Endpoint

	in        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewEndpoint creates a fresh, unpaired endpoint.
func NewEndpoint() *Endpoint {
	return &Endpoint{
		id:   endpointIDs.Add(1),
		in:   make(chan []byte, receiveBuffer),
		done: make(chan struct{}),
	}
}

// Send delivers msg to the paired endpoint's receive channel. It
// blocks while the peer's buffer is full and fails once either side
// is closed or if the endpoint was never paired.
func (e *Endpoint) Send(msg []byte) error {
	e.mu.Lock()
	peer := e.peer
	e.mu.Unlock()
	if peer == nil {
		return ErrNotPaired
	}
	select {
	case peer.in <- msg:
		return nil
	case <-peer.done:
		return ErrClosed
	case <-e.done:
		return ErrClosed
	}
}

// Receive returns the channel messages from the peer arrive on.
// Consumers should select on Done as well: the channel is not closed
// on shutdown, Done signals it instead.
func (e *Endpoint) Receive() <-chan []byte {
	return e.in
}

// Done is closed when the endpoint shuts down.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Close shuts the endpoint down. Safe to call more than once; pending
// and future Sends from the peer fail with ErrClosed.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	return nil
}

// Provider wires endpoint pairs together. It holds no per-pair state
// beyond the wiring itself; pairing is delivery routing, not a
// registry of active sessions.
type Provider struct {
	mu sync.Mutex
}

// NewProvider creates an independent provider, for callers that inject
// their own rather than using the shared instance.
func NewProvider() *Provider {
	return &Provider{}
}

var (
	sharedProvider *Provider
	sharedOnce     sync.Once
)

// Shared returns the process-wide provider, created on first use.
func Shared() *Provider {
	sharedOnce.Do(func() {
		sharedProvider = NewProvider()
	})
	return sharedProvider
}

// Connect pairs two freshly created endpoints so each delivers to the
// other. Each endpoint can be paired exactly once.
func (p *Provider) Connect(a, b *Endpoint) error {
	if a == nil || b == nil || a == b {
		return errors.New("loopback: connect requires two distinct endpoints")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	// Lock in creation order: p.mu is per-provider, so two providers
	// pairing overlapping endpoints in opposite argument orders would
	// otherwise deadlock.
	first, second := a, b
	if b.id < a.id {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	defer first.mu.Unlock()
	defer second.mu.Unlock()

	if a.peer != nil || b.peer != nil {
		return ErrAlreadyPaired
	}
	a.peer = b
	b.peer = a
	return nil
}
