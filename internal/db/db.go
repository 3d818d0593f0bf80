// Package db provides the local database handle consumed by the sync
// core: opening, the reopen primitive that gives each session an
// isolated connection, and the stable database identity used when
// talking to peers. The document storage layer itself lives behind
// this handle and is not part of the sync core.
package db

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/hkdf"
)

// Schema for the sync metadata kept alongside the document store.
const metaSchema = `
CREATE TABLE IF NOT EXISTS sync_meta (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);
`

const publicUUIDKey = "public_uuid"

// Database is an open handle on a local database file. Handles are not
// shared between a caller and a sync session; sessions take their own
// via Reopen.
type Database struct {
	sqldb      *sql.DB
	path       string
	publicUUID uuid.UUID
}

// Open opens or creates the database at path and ensures the sync
// metadata (including the database's public UUID) exists.
func Open(path string) (*Database, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sqldb, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := sqldb.Exec(metaSchema); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("apply sync metadata schema: %w", err)
	}

	id, err := loadOrCreateUUID(sqldb)
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	return &Database{sqldb: sqldb, path: path, publicUUID: id}, nil
}

// Reopen opens a fresh handle on the same database file, isolating the
// new handle's connection and transaction lifetime from this one.
func (d *Database) Reopen() (*Database, error) {
	if d.sqldb == nil {
		return nil, errors.New("reopen: database not open")
	}
	nd, err := Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", d.path, err)
	}
	return nd, nil
}

// Path returns the storage location of the database file.
func (d *Database) Path() string {
	return d.path
}

// PublicUUID returns the stable identity this database presents to
// sync peers.
func (d *Database) PublicUUID() uuid.UUID {
	return d.publicUUID
}

// PrivateUUID returns a second stable identity derived from the public
// one via HKDF. It can be handed to components that need to recognize
// the database without learning the identity peers see.
func (d *Database) PrivateUUID() (uuid.UUID, error) {
	kdf := hkdf.New(sha256.New, d.publicUUID[:], nil, []byte("replicore private uuid"))
	var buf [16]byte
	if _, err := io.ReadFull(kdf, buf[:]); err != nil {
		return uuid.Nil, fmt.Errorf("derive private uuid: %w", err)
	}
	id, err := uuid.FromBytes(buf[:])
	if err != nil {
		return uuid.Nil, fmt.Errorf("derive private uuid: %w", err)
	}
	return id, nil
}

// Close closes the handle. Other handles on the same file are
// unaffected.
func (d *Database) Close() error {
	if d.sqldb != nil {
		return d.sqldb.Close()
	}
	return nil
}

// SQL exposes the underlying connection pool for collaborators layered
// on the same handle.
func (d *Database) SQL() *sql.DB {
	return d.sqldb
}

func loadOrCreateUUID(sqldb *sql.DB) (uuid.UUID, error) {
	var stored string
	err := sqldb.QueryRow(`SELECT value FROM sync_meta WHERE key = ?`, publicUUIDKey).Scan(&stored)
	switch {
	case err == nil:
		id, perr := uuid.Parse(stored)
		if perr != nil {
			return uuid.Nil, fmt.Errorf("parse stored uuid: %w", perr)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		id := uuid.New()
		// INSERT OR IGNORE: another handle may have won the race.
		if _, err := sqldb.Exec(`INSERT OR IGNORE INTO sync_meta (key, value) VALUES (?, ?)`,
			publicUUIDKey, id.String()); err != nil {
			return uuid.Nil, fmt.Errorf("store uuid: %w", err)
		}
		if err := sqldb.QueryRow(`SELECT value FROM sync_meta WHERE key = ?`, publicUUIDKey).Scan(&stored); err != nil {
			return uuid.Nil, fmt.Errorf("reload uuid: %w", err)
		}
		id, perr := uuid.Parse(stored)
		if perr != nil {
			return uuid.Nil, fmt.Errorf("parse stored uuid: %w", perr)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("load uuid: %w", err)
	}
}
