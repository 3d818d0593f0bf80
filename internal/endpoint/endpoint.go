// Package endpoint models replication targets: the URL scheme and
// address of a remote peer, and the pseudo-address used for
// local-to-local sync over the loopback transport.
package endpoint

import (
	"strconv"
	"strings"
)

// Scheme is the transport scheme of a replication address.
type Scheme string

const (
	SchemeWS    Scheme = "ws"
	SchemeWSS   Scheme = "wss"
	SchemeBlip  Scheme = "blip"
	SchemeBlips Scheme = "blips"

	// SchemeFile is the sentinel scheme for loopback pseudo-addresses.
	// It is never dialed; the path carries the database storage location.
	SchemeFile Scheme = "file"
)

// syncPathSuffix is appended to the remote database name when
// synthesizing the sync endpoint path.
const syncPathSuffix = "/_blipsync"

// Address identifies one replication endpoint. Immutable once built.
type Address struct {
	Scheme   Scheme
	Hostname string
	Port     uint16
	Path     string
}

// IsValidSyncScheme reports whether s is one of the schemes accepted
// for remote replication.
func IsValidSyncScheme(s Scheme) bool {
	switch s {
	case SchemeWS, SchemeWSS, SchemeBlip, SchemeBlips:
		return true
	}
	return false
}

// secure reports whether the scheme implies TLS. Secure scheme names
// end in 's'.
func (s Scheme) secure() bool {
	return strings.HasSuffix(string(s), "s")
}

// DefaultPort returns the port assumed when a URL omits one.
func (s Scheme) DefaultPort() uint16 {
	if s.secure() {
		return 443
	}
	return 80
}

// databaseNameChars is the set of characters permitted in a database
// name, after the first character. Same rules as CouchDB.
const databaseNameChars = "abcdefghijklmnopqrstuvwxyz0123456789_$()+-/"

// IsValidDatabaseName reports whether name is a legal database name:
// non-empty, shorter than 240 bytes, starting with a lowercase ASCII
// letter, and containing only lowercase letters, digits and _$()+-/.
func IsValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) >= 240 {
		return false
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !strings.ContainsRune(databaseNameChars, rune(name[i])) {
			return false
		}
	}
	return true
}

// ParseURL splits a replication URL of the form
//
//	scheme://host[:port]/dbname[/]
//
// into an Address and the target database name. The port defaults to
// 443 for secure schemes and 80 otherwise. A missing or unsupported
// scheme, a malformed or out-of-range port, an empty path, or an
// invalid database name all fail the parse; on failure the returned
// Address and name are zero values.
func ParseURL(url string) (Address, string, bool) {
	var addr Address

	colon := strings.Index(url, ":")
	if colon < 0 {
		return Address{}, "", false
	}
	scheme := Scheme(url[:colon])
	if !IsValidSyncScheme(scheme) {
		return Address{}, "", false
	}
	addr.Scheme = scheme
	addr.Port = scheme.DefaultPort()

	rest := url[colon:]
	if !strings.HasPrefix(rest, "://") {
		return Address{}, "", false
	}
	rest = rest[3:]

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		// No path at all.
		return Address{}, "", false
	}
	hostPort := rest[:slash]
	rest = rest[slash:]

	if c := strings.IndexByte(hostPort, ':'); c >= 0 {
		port, err := strconv.Atoi(hostPort[c+1:])
		if err != nil || port < 0 || port > 65535 {
			return Address{}, "", false
		}
		addr.Port = uint16(port)
		addr.Hostname = hostPort[:c]
	} else {
		addr.Hostname = hostPort
	}

	name := strings.TrimPrefix(rest, "/")
	name = strings.TrimSuffix(name, "/")
	if !IsValidDatabaseName(name) {
		return Address{}, "", false
	}
	addr.Path = "/" + name

	return addr, name, true
}

// RemoteAddress synthesizes the full sync endpoint address for a
// remote database: the caller-supplied address with the path replaced
// by /<remoteDB>/_blipsync.
func RemoteAddress(addr Address, remoteDB string) Address {
	addr.Path = "/" + remoteDB + syncPathSuffix
	return addr
}

// LocalAddress derives the loopback pseudo-address for a local
// database from its storage path. The result is routing information
// for the in-process transport, not a dialable URL.
func LocalAddress(databasePath string) Address {
	return Address{
		Scheme: SchemeFile,
		Path:   databasePath,
	}
}
