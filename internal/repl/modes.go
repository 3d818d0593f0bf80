// Package repl implements the replication session controller: it
// builds the protocol-engine instances for a session (one for remote
// sync, a wired pair for local-to-local sync over the loopback
// transport), aggregates their status, and manages the session's
// lifetime while asynchronous callbacks may still arrive.
package repl

import (
	"fmt"

	"replicore/internal/syncerr"
)

// Mode is a replication mode for one direction (push or pull).
type Mode int

const (
	ModeDisabled Mode = iota
	ModePassive
	ModeOneShot
	ModeContinuous
)

var modeNames = [...]string{"disabled", "passive", "one-shot", "continuous"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ModeFromName maps a configuration mode name to a Mode.
func ModeFromName(name string) (Mode, bool) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), true
		}
	}
	return ModeDisabled, false
}

// ActivityLevel is the externally visible state of a protocol engine.
type ActivityLevel int

const (
	Stopped ActivityLevel = iota
	Offline
	Connecting
	Idle
	Busy
)

var activityLevelNames = [...]string{"stopped", "offline", "connecting", "idle", "busy"}

func (l ActivityLevel) String() string {
	if l < 0 || int(l) >= len(activityLevelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return activityLevelNames[l]
}

// Progress counts units of sync work completed so far and the total
// currently known. Total can grow while a session runs.
type Progress struct {
	Completed uint64
	Total     uint64
}

// Status is a session's externally visible state. Error is populated
// only when Level is Stopped or Offline.
type Status struct {
	Level    ActivityLevel
	Progress Progress
	Error    syncerr.Error
}

// Role identifies which engine of a session produced a notification.
type Role int

const (
	// RolePrimary is the engine carrying the caller's requested modes.
	RolePrimary Role = iota
	// RolePeer is the passive counterparty engine of a local-to-local
	// session.
	RolePeer
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RolePeer:
		return "peer"
	}
	return fmt.Sprintf("role(%d)", int(r))
}
