// Package buildcache persists the const-data interning (spec.md §4.4)
// and code generation (spec.md §4.5) results of one compile, keyed by
// a hash of the input fixture and the machine-model parameters that
// affect codegen. A cache hit lets a second CLI run against an
// unchanged fixture skip straight to output, directly exercising the
// idempotence property spec.md §8 describes for both passes.
//
// Grounded on no teacher analog (funxy has no persistent build cache)
// — this is a from-scratch addition in the teacher's
// single-struct-wraps-a-handle manager style (an explicit Open/Close
// lifetime, no package-global state), built on modernc.org/sqlite
// exactly as the teacher's own go.mod already depends on it.
package buildcache

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plasma-lang/plasmac/internal/constdata"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/pzcode"
)

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	cache_key  TEXT PRIMARY KEY,
	build_id   TEXT NOT NULL,
	artifact   BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Key identifies one cacheable compile.
type Key struct {
	FixtureHash string
	NumPtagBits int
}

// NewKey hashes fixtureBytes (the raw YAML source, per spec.md §0.1)
// together with the ABI parameters that change codegen output.
func NewKey(fixtureBytes []byte, numPtagBits int) Key {
	sum := sha256.Sum256(fixtureBytes)
	return Key{FixtureHash: fmt.Sprintf("%x", sum), NumPtagBits: numPtagBits}
}

func (k Key) cacheKey() string {
	return fmt.Sprintf("%s:%d", k.FixtureHash, k.NumPtagBits)
}

// pzSnapshot is the subset of *pzcode.PZ that survives a round trip
// through the cache: the two allocators (procAlloc/structAlloc) are
// unexported and are never needed after a cache hit, since a hit
// means code generation (the only thing that consumes them) doesn't
// run this time.
type pzSnapshot struct {
	Procs      map[ids.ProcID]*pzcode.PZProc
	Structs    map[ids.StructID][]pzcode.Width
	Data       map[ids.DataID][]byte
	StagStruct ids.StructID
}

func snapshotOf(pz *pzcode.PZ) pzSnapshot {
	return pzSnapshot{Procs: pz.Procs, Structs: pz.Structs, Data: pz.Data, StagStruct: pz.StagStruct}
}

// ToPZ rebuilds a usable *pzcode.PZ from a cached snapshot, for the
// CLI to hand straight to output.
func (s pzSnapshot) ToPZ() *pzcode.PZ {
	pz := pzcode.New()
	pz.Procs = s.Procs
	pz.Structs = s.Structs
	pz.Data = s.Data
	pz.StagStruct = s.StagStruct
	return pz
}

// Artifact is everything a cache hit restores.
type Artifact struct {
	BuildID      string
	ConstEntries []constdata.Entry
	PZ           pzSnapshot
}

// Cache wraps a sqlite-backed store of compiled artifacts.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path,
// ensuring its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("buildcache: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying sqlite handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached artifact for key, if present.
func (c *Cache) Lookup(key Key) (*Artifact, bool, error) {
	row := c.db.QueryRow(`SELECT artifact FROM builds WHERE cache_key = ?`, key.cacheKey())
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("buildcache: querying %s: %w", key.cacheKey(), err)
	}
	var art Artifact
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&art); err != nil {
		return nil, false, fmt.Errorf("buildcache: decoding cached artifact for %s: %w", key.cacheKey(), err)
	}
	return &art, true, nil
}

// Store records constTable and pz under key, assigning a fresh build
// id (spec.md has no notion of build ids; this is the CLI's own
// bookkeeping, surfaced in -v output via SPEC_FULL.md's domain-stack
// wiring for github.com/google/uuid).
func (c *Cache) Store(key Key, constTable *constdata.Table, pz *pzcode.PZ) (string, error) {
	buildID := uuid.New().String()
	art := Artifact{
		BuildID:      buildID,
		ConstEntries: constTable.Entries,
		PZ:           snapshotOf(pz),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&art); err != nil {
		return "", fmt.Errorf("buildcache: encoding artifact for %s: %w", key.cacheKey(), err)
	}
	_, err := c.db.Exec(
		`INSERT INTO builds (cache_key, build_id, artifact, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET build_id = excluded.build_id, artifact = excluded.artifact, created_at = excluded.created_at`,
		key.cacheKey(), buildID, buf.Bytes(), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("buildcache: storing %s: %w", key.cacheKey(), err)
	}
	return buildID, nil
}
