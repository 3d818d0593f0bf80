package endpoint

import (
	"strings"
	"testing"
)

func TestIsValidDatabaseName(t *testing.T) {
	valid := []string{
		"db",
		"a",
		"travel-sample",
		"db_2024",
		"a$b(c)d+e-f/g",
		"z0123456789",
		strings.Repeat("a", 239),
	}
	for _, name := range valid {
		if !IsValidDatabaseName(name) {
			t.Errorf("IsValidDatabaseName(%q) = false, want true", name)
		}
	}

	invalid := []string{
		"",
		"Db",            // uppercase first char
		"0db",           // digit first char
		"_db",           // underscore first char
		"db name",       // space
		"db.name",       // dot
		"dbNAME",        // uppercase inside
		"db\x00",        // control char
		strings.Repeat("a", 240), // too long
	}
	for _, name := range invalid {
		if IsValidDatabaseName(name) {
			t.Errorf("IsValidDatabaseName(%q) = true, want false", name)
		}
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantAddr Address
		wantName string
	}{
		{
			url:      "ws://host/dbname",
			wantAddr: Address{Scheme: SchemeWS, Hostname: "host", Port: 80, Path: "/dbname"},
			wantName: "dbname",
		},
		{
			url:      "wss://host:1234/dbname/",
			wantAddr: Address{Scheme: SchemeWSS, Hostname: "host", Port: 1234, Path: "/dbname"},
			wantName: "dbname",
		},
		{
			url:      "wss://example.org/travel-sample",
			wantAddr: Address{Scheme: SchemeWSS, Hostname: "example.org", Port: 443, Path: "/travel-sample"},
			wantName: "travel-sample",
		},
		{
			url:      "blip://10.0.0.1:59840/db",
			wantAddr: Address{Scheme: SchemeBlip, Hostname: "10.0.0.1", Port: 59840, Path: "/db"},
			wantName: "db",
		},
		{
			url:      "blips://sync.example.com/db",
			wantAddr: Address{Scheme: SchemeBlips, Hostname: "sync.example.com", Port: 443, Path: "/db"},
			wantName: "db",
		},
	}
	for _, tt := range tests {
		addr, name, ok := ParseURL(tt.url)
		if !ok {
			t.Errorf("ParseURL(%q) failed, want success", tt.url)
			continue
		}
		if addr != tt.wantAddr {
			t.Errorf("ParseURL(%q) address = %+v, want %+v", tt.url, addr, tt.wantAddr)
		}
		if name != tt.wantName {
			t.Errorf("ParseURL(%q) name = %q, want %q", tt.url, name, tt.wantName)
		}
	}
}

func TestParseURLFailures(t *testing.T) {
	urls := []string{
		"",
		"host/dbname",             // missing scheme
		"http://host/dbname",      // unsupported scheme
		"ftp://host/db",           // unsupported scheme
		"ws:/host/db",             // malformed separator
		"ws://host:port/db",       // non-numeric port
		"ws://host:-1/db",         // negative port
		"ws://host:65536/db",      // out-of-range port
		"ws://host",               // no path
		"ws://host/",              // empty path
		"ws://host/Invalid_Name",  // invalid database name
		"ws://host/db.name",       // invalid database name
	}
	for _, url := range urls {
		addr, name, ok := ParseURL(url)
		if ok {
			t.Errorf("ParseURL(%q) succeeded, want failure", url)
		}
		if addr != (Address{}) || name != "" {
			t.Errorf("ParseURL(%q) left partial results: %+v %q", url, addr, name)
		}
	}
}

func TestRemoteAddressRoundTrip(t *testing.T) {
	addr, name, ok := ParseURL("wss://host:4984/mydb")
	if !ok {
		t.Fatal("ParseURL failed")
	}

	remote := RemoteAddress(addr, name)
	if remote.Path != "/mydb/_blipsync" {
		t.Errorf("synthesized path = %q, want %q", remote.Path, "/mydb/_blipsync")
	}
	if remote.Scheme != addr.Scheme || remote.Hostname != addr.Hostname || remote.Port != addr.Port {
		t.Errorf("RemoteAddress changed scheme/host/port: %+v vs %+v", remote, addr)
	}
}

func TestLocalAddress(t *testing.T) {
	addr := LocalAddress("/var/lib/app/db.sqlite3")
	if addr.Scheme != SchemeFile {
		t.Errorf("scheme = %q, want %q", addr.Scheme, SchemeFile)
	}
	if addr.Hostname != "" || addr.Port != 0 {
		t.Errorf("local address carries network fields: %+v", addr)
	}
	if addr.Path != "/var/lib/app/db.sqlite3" {
		t.Errorf("path = %q", addr.Path)
	}
}

func TestDefaultPort(t *testing.T) {
	if got := SchemeWS.DefaultPort(); got != 80 {
		t.Errorf("ws default port = %d, want 80", got)
	}
	if got := SchemeWSS.DefaultPort(); got != 443 {
		t.Errorf("wss default port = %d, want 443", got)
	}
	if got := SchemeBlip.DefaultPort(); got != 80 {
		t.Errorf("blip default port = %d, want 80", got)
	}
	if got := SchemeBlips.DefaultPort(); got != 443 {
		t.Errorf("blips default port = %d, want 443", got)
	}
}

func TestIsValidSyncScheme(t *testing.T) {
	for _, s := range []Scheme{SchemeWS, SchemeWSS, SchemeBlip, SchemeBlips} {
		if !IsValidSyncScheme(s) {
			t.Errorf("IsValidSyncScheme(%q) = false", s)
		}
	}
	for _, s := range []Scheme{SchemeFile, "http", "https", ""} {
		if IsValidSyncScheme(s) {
			t.Errorf("IsValidSyncScheme(%q) = true", s)
		}
	}
}
