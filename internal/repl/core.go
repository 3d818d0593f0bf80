package repl

import (
	"errors"
	"time"

	"replicore/internal/config"
	"replicore/internal/db"
	"replicore/internal/endpoint"
	"replicore/internal/logging"
	"replicore/internal/loopback"
	"replicore/internal/registry"
	"replicore/internal/syncerr"
)

// Core creates and tracks replication sessions. It owns the injected
// collaborators: the engine factory, the loopback provider, and an
// optional session registry.
type Core struct {
	engines  EngineFactory
	provider *loopback.Provider
	registry *registry.Registry
	log      *logging.Logger
	options  EngineOptions
}

// Option configures a Core.
type Option func(*Core)

// WithProvider injects a loopback provider; the process-wide shared
// provider is used otherwise.
func WithProvider(p *loopback.Provider) Option {
	return func(c *Core) { c.provider = p }
}

// WithRegistry attaches a session registry; sessions register on
// creation and unregister when their self-reference is released.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Core) { c.registry = r }
}

// WithLogger sets the logger. Defaults to the package default logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Core) { c.log = l }
}

// WithConfig applies replication tuning from configuration to every
// engine the core builds.
func WithConfig(cfg *config.Config) Option {
	return func(c *Core) {
		c.options = EngineOptions{
			Heartbeat:        time.Duration(cfg.Replication.HeartbeatSec) * time.Second,
			MaxRetries:       cfg.Replication.MaxRetries,
			MaxRetryInterval: time.Duration(cfg.Replication.MaxRetryIntervalSec) * time.Second,
		}
	}
}

// NewCore creates a session controller backed by the given engine
// factory.
func NewCore(factory EngineFactory, opts ...Option) (*Core, error) {
	if factory == nil {
		return nil, errors.New("repl: engine factory is required")
	}
	c := &Core{
		engines:  factory,
		provider: loopback.Shared(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.Default().WithComponent("repl")
	}
	return c, nil
}

// NewRemote creates a session replicating database with a remote peer
// at addr. The database handle is reopened so the session's connection
// lifetime is isolated from the caller's. The returned session already
// carries the engine's initial status.
func (c *Core) NewRemote(database *db.Database, addr endpoint.Address, remoteDB string,
	push, pull Mode, cb StatusCallback, cbCtx any) (*Replicator, error) {

	if push == ModeDisabled && pull == ModeDisabled {
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrInvalidParameter,
			"either push or pull must be enabled")
	}
	if !endpoint.IsValidSyncScheme(addr.Scheme) {
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrInvalidParameter,
			"unsupported replication URL scheme %q", addr.Scheme)
	}

	dbCopy, err := database.Reopen()
	if err != nil {
		return nil, syncerr.New(syncerr.DomainStorage, syncerr.StorageErrCantOpen, "%v", err)
	}

	r := newReplicator(c, cb, cbCtx)
	eng, serr := c.buildEngine(EngineConfig{
		DB:       dbCopy,
		Address:  endpoint.RemoteAddress(addr, remoteDB),
		Push:     push,
		Pull:     pull,
		Role:     RolePrimary,
		Delegate: r,
		Options:  c.options,
	})
	if serr != nil {
		dbCopy.Close()
		return nil, serr
	}

	r.complete(eng, nil)
	c.log.Info("remote session created",
		"session_id", r.id.String(),
		"target", addr.Hostname,
		"push", push.String(),
		"pull", pull.String())
	return r, nil
}

// NewLocal creates a session replicating database with another local
// database, wired through the loopback transport. The peer engine is
// built passive in both directions; the primary carries the caller's
// modes. Both handles are reopened for the session's exclusive use.
func (c *Core) NewLocal(database, other *db.Database,
	push, pull Mode, cb StatusCallback, cbCtx any) (*Replicator, error) {

	if push == ModeDisabled && pull == ModeDisabled {
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrInvalidParameter,
			"either push or pull must be enabled")
	}
	if database == other {
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrInvalidParameter,
			"can't replicate a database to itself")
	}

	dbCopy, err := database.Reopen()
	if err != nil {
		return nil, syncerr.New(syncerr.DomainStorage, syncerr.StorageErrCantOpen, "%v", err)
	}
	otherCopy, err := other.Reopen()
	if err != nil {
		dbCopy.Close()
		return nil, syncerr.New(syncerr.DomainStorage, syncerr.StorageErrCantOpen, "%v", err)
	}

	r := newReplicator(c, cb, cbCtx)
	epPrimary := loopback.NewEndpoint()
	epPeer := loopback.NewEndpoint()

	primary, serr := c.buildEngine(EngineConfig{
		DB:       dbCopy,
		Address:  endpoint.LocalAddress(other.Path()),
		Endpoint: epPrimary,
		Push:     push,
		Pull:     pull,
		Role:     RolePrimary,
		Delegate: r,
		Options:  c.options,
	})
	if serr != nil {
		dbCopy.Close()
		otherCopy.Close()
		return nil, serr
	}

	peer, serr := c.buildEngine(EngineConfig{
		DB:       otherCopy,
		Address:  endpoint.LocalAddress(database.Path()),
		Endpoint: epPeer,
		Push:     ModePassive,
		Pull:     ModePassive,
		Role:     RolePeer,
		Delegate: r,
		Options:  c.options,
	})
	if serr != nil {
		primary.Stop()
		dbCopy.Close()
		otherCopy.Close()
		return nil, serr
	}

	// Wire the pair before either engine produces traffic. The
	// endpoints come from the engines' accessors, not the locals
	// above: an engine is free to substitute its own.
	if err := c.provider.Connect(primary.Endpoint(), peer.Endpoint()); err != nil {
		primary.Stop()
		peer.Stop()
		dbCopy.Close()
		otherCopy.Close()
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrUnexpected, "%v", err)
	}

	r.complete(primary, peer)
	c.log.Info("local session created",
		"session_id", r.id.String(),
		"database", database.Path(),
		"other", other.Path(),
		"push", push.String(),
		"pull", pull.String())
	return r, nil
}

// buildEngine invokes the factory, converting either an error or a
// panic into an error record so construction failures never escape
// uncontrolled.
func (c *Core) buildEngine(cfg EngineConfig) (eng Engine, serr error) {
	defer func() {
		if rec := recover(); rec != nil {
			eng = nil
			serr = syncerr.New(syncerr.DomainSync, syncerr.ErrUnexpected,
				"engine construction failed: %v", rec)
		}
	}()

	eng, err := c.engines(cfg)
	if err != nil {
		var record syncerr.Error
		if errors.As(err, &record) {
			return nil, record
		}
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrUnexpected, "%v", err)
	}
	if eng == nil {
		return nil, syncerr.New(syncerr.DomainSync, syncerr.ErrUnexpected,
			"engine factory returned no engine")
	}
	return eng, nil
}
