package repl

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// StatusCallback is invoked on every status change of the session's
// primary engine, from an unspecified internal goroutine. It must not
// block.
type StatusCallback func(r *Replicator, status Status, context any)

// Replicator is one replication session. It is the delegate of its
// engine(s) and holds a reference on itself until every engine has
// reported Stopped, so a late callback can never reach a dead session.
type Replicator struct {
	id   uuid.UUID
	core *Core

	// callback is swapped atomically; Detach stores nil so no further
	// notifications are delivered.
	callback atomic.Pointer[StatusCallback]
	cbCtx    any

	mu        sync.Mutex
	primary   Engine
	peer      Engine // nil unless local-to-local
	status    Status // last aggregate, primary engine only
	peerLevel ActivityLevel
	ready     bool // construction complete
	pending   bool // a notification arrived before construction completed
	released  bool
	self      *Replicator // the self-reference; nil once released
}

func newReplicator(core *Core, cb StatusCallback, cbCtx any) *Replicator {
	r := &Replicator{
		id:    uuid.New(),
		core:  core,
		cbCtx: cbCtx,
	}
	if cb != nil {
		r.callback.Store(&cb)
	}
	return r
}

// ID returns the session's identifier, used in logs and the registry.
func (r *Replicator) ID() uuid.UUID {
	return r.id
}

// Status returns the last aggregate status snapshot. Non-blocking; it
// reflects the most recent notification from the primary engine.
func (r *Replicator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Stop asks the primary engine to begin shutdown. It does not block;
// the eventual Stopped status arrives via notification. No timeout is
// imposed: callers needing bounded shutdown must impose one.
func (r *Replicator) Stop() {
	r.primary.Stop()
}

// Detach clears the status callback so no further notifications are
// delivered. It does not affect engine shutdown or the session's
// lifetime rule.
func (r *Replicator) Detach() {
	r.callback.Store(nil)
}

// StatusChanged implements Delegate. Primary notifications update the
// externally visible status and reach the callback; peer notifications
// only update the internal peer level. After every notification the
// termination condition is evaluated and the self-reference released
// exactly once when it holds.
func (r *Replicator) StatusChanged(role Role, status Status) {
	var notify bool

	r.mu.Lock()
	switch role {
	case RolePrimary:
		r.status = status
		notify = true
	case RolePeer:
		r.peerLevel = status.Level
	}
	if !r.ready {
		r.pending = true
		r.mu.Unlock()
		return
	}
	release := r.maybeReleaseLocked()
	r.mu.Unlock()

	if release {
		r.finishRelease()
	}
	if notify {
		r.notify(status)
	}
}

// maybeReleaseLocked evaluates the termination condition and, if it
// holds, drops the self-reference. Exactly one caller can win. Called
// with r.mu held.
func (r *Replicator) maybeReleaseLocked() bool {
	if r.released {
		return false
	}
	if r.status.Level != Stopped {
		return false
	}
	if r.peer != nil && r.peerLevel != Stopped {
		return false
	}
	r.released = true
	r.self = nil
	return true
}

func (r *Replicator) finishRelease() {
	if r.core.registry != nil {
		r.core.registry.Unregister(r.id.String())
	}
	r.core.log.Debug("session released", "session_id", r.id.String())
}

// notify delivers a status change to the registered callback, if any.
// The pointer is loaded atomically so a concurrent Detach cannot leave
// a half-cleared reference.
func (r *Replicator) notify(status Status) {
	if cb := r.callback.Load(); cb != nil {
		(*cb)(r, status, r.cbCtx)
	}
}

// complete finishes construction: engines are attached, the initial
// status snapshot is taken, and the self-reference is armed. If a
// notification raced construction and the termination condition
// already holds, the release happens here instead of being lost.
func (r *Replicator) complete(primary, peer Engine) {
	// Register before arming: once ready is set, an engine goroutine
	// can win the release and unregister, which must find the session
	// already registered or the dead entry would sit there forever.
	if r.core.registry != nil {
		r.core.registry.Register(r.id.String(), func() string {
			return r.Status().Level.String()
		})
	}

	r.mu.Lock()
	r.primary = primary
	r.peer = peer
	if !r.pending {
		r.status = primary.Status()
		if peer != nil {
			r.peerLevel = peer.Status().Level
		}
	}
	r.self = r
	r.ready = true
	release := r.pending && r.maybeReleaseLocked()
	r.mu.Unlock()

	if release {
		r.finishRelease()
	}
}

// retained reports whether the self-reference is still held.
func (r *Replicator) retained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self != nil
}
