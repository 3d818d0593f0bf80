package repl

import (
	"time"

	"replicore/internal/db"
	"replicore/internal/endpoint"
	"replicore/internal/loopback"
)

// Delegate receives asynchronous status notifications from a protocol
// engine. The role tag identifies the sender; implementations must not
// compare engine identities.
type Delegate interface {
	StatusChanged(role Role, status Status)
}

// EngineOptions carries tuning the engine is asked to honor, derived
// from configuration.
type EngineOptions struct {
	Heartbeat        time.Duration
	MaxRetries       int
	MaxRetryInterval time.Duration
}

// EngineConfig describes one protocol-engine instance to build.
type EngineConfig struct {
	// DB is the engine's private database handle, already reopened
	// for this session.
	DB *db.Database

	// Address is the target: a remote sync URL for network engines,
	// or a loopback pseudo-address for local-to-local sync.
	Address endpoint.Address

	// Endpoint is the engine's side of an in-process transport pair.
	// Nil for network engines.
	Endpoint *loopback.Endpoint

	// Push and Pull are the replication modes for each direction.
	Push, Pull Mode

	// Role tags the notifications this engine delivers.
	Role Role

	// Delegate receives the engine's status notifications.
	Delegate Delegate

	// Options is engine tuning from configuration.
	Options EngineOptions
}

// Engine is the protocol-engine collaborator that executes the actual
// sync message exchange. The controller drives lifecycle and observes
// status; everything else is the engine's business.
type Engine interface {
	// Status returns the engine's current status.
	Status() Status

	// Stop asks the engine to begin shutting down. Asynchronous: the
	// eventual Stopped level arrives through the delegate.
	Stop()

	// Endpoint returns the engine's loopback endpoint, or nil for a
	// network engine.
	Endpoint() *loopback.Endpoint
}

// EngineFactory builds a protocol engine for a session. The factory is
// injected so the controller never depends on a concrete engine.
type EngineFactory func(cfg EngineConfig) (Engine, error)
