// Package syncerr defines the fixed-size error record shared across
// the sync core, the bounded buffer of recently generated error
// messages, and the static transient/network-dependent error
// classification consulted by retry logic.
package syncerr

import (
	"fmt"
	"sync"
)

// Domain identifies the subsystem an error code belongs to.
type Domain int

const (
	DomainNone Domain = iota
	// DomainSync covers errors raised by the sync core itself.
	DomainSync
	// DomainPOSIX carries errno values surfaced by the transport.
	DomainPOSIX
	// DomainStorage carries errors from the local database engine.
	DomainStorage
	// DomainNetwork carries connection-level network errors.
	DomainNetwork
	// DomainWebSocket carries HTTP status and WebSocket close codes.
	DomainWebSocket

	domainMax
)

var domainNames = [domainMax]string{
	DomainNone:      "none",
	DomainSync:      "sync",
	DomainPOSIX:     "POSIX",
	DomainStorage:   "storage",
	DomainNetwork:   "network",
	DomainWebSocket: "WebSocket",
}

func (d Domain) String() string {
	if d < 0 || d >= domainMax {
		return fmt.Sprintf("domain(%d)", int(d))
	}
	return domainNames[d]
}

// DomainSync error codes.
const (
	ErrInvalidParameter = 1
	ErrNotOpen          = 2
	ErrUnexpected       = 3
)

// DomainStorage error codes.
const (
	StorageErrCantOpen = 1
)

// DomainNetwork error codes.
const (
	NetErrDNSFailure  = 1
	NetErrUnknownHost = 2
	NetErrTimeout     = 3
)

// DomainWebSocket close codes (HTTP statuses share the domain).
const (
	WebSocketCloseGoingAway = 1001
)

// Error is the error record crossing the public boundary. A zero Code
// means success. MessageToken is an opaque index into the recorded
// message buffer; zero means no recorded message.
type Error struct {
	Domain       Domain
	Code         int
	MessageToken uint32
}

// Error implements the error interface, so a record can travel as an
// ordinary Go error.
func (e Error) Error() string {
	return Message(e)
}

// IsZero reports whether the record represents success.
func (e Error) IsZero() bool {
	return e.Code == 0
}

// Recently generated error messages, referenced by Error.MessageToken.
// The buffer keeps the last maxRecordedMessages strings; older tokens
// become unresolvable as the window advances.
const maxRecordedMessages = 10

var (
	messagesMu sync.Mutex
	firstToken uint32 = 1000 // token of messages[0]
	messages   []string
)

// Record builds an Error for domain/code and, if message is non-empty,
// stores it in the message buffer so Message can retrieve it later.
// Recording is best-effort: it never fails outward.
func Record(domain Domain, code int, message string) Error {
	err := Error{Domain: domain, Code: code}
	if message == "" {
		return err
	}
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages = append(messages, message)
	if len(messages) > maxRecordedMessages {
		messages = messages[1:]
		firstToken++
	}
	err.MessageToken = firstToken + uint32(len(messages)) - 1
	return err
}

// New formats a message and records it, returning the resulting Error.
func New(domain Domain, code int, format string, args ...any) Error {
	return Record(domain, code, fmt.Sprintf(format, args...))
}

// lookupMessage resolves a token to its recorded message, or "" if the
// token has expired out of the window or was never issued.
func lookupMessage(token uint32) string {
	messagesMu.Lock()
	defer messagesMu.Unlock()
	index := int64(token) - int64(firstToken)
	if index < 0 || index >= int64(len(messages)) {
		return ""
	}
	return messages[index]
}

// Message returns a human-readable description of the error record:
// the recorded message if its token still resolves, else the generic
// message for the domain/code pair. A zero code yields "".
func Message(e Error) string {
	if e.Code == 0 {
		return ""
	}
	if e.Domain <= DomainNone || e.Domain >= domainMax {
		return "unknown error domain"
	}
	if msg := lookupMessage(e.MessageToken); msg != "" {
		return msg
	}
	return genericMessage(e.Domain, e.Code)
}

// genericMessages holds the registered per-code messages for each
// domain. Codes without an entry fall back to a domain-qualified
// description.
var genericMessages = map[Domain]map[int]string{
	DomainSync: {
		ErrInvalidParameter: "invalid parameter",
		ErrNotOpen:          "database not open",
		ErrUnexpected:       "unexpected error",
	},
	DomainStorage: {
		StorageErrCantOpen: "can't open database file",
	},
	DomainNetwork: {
		NetErrDNSFailure:  "DNS lookup failed",
		NetErrUnknownHost: "unknown hostname",
		NetErrTimeout:     "network operation timed out",
	},
	DomainWebSocket: {
		WebSocketCloseGoingAway: "peer is going away",
	},
}

func genericMessage(domain Domain, code int) string {
	if msg, ok := genericMessages[domain][code]; ok {
		return msg
	}
	return fmt.Sprintf("%s error %d", domain, code)
}
