package cache

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/sqlite"
)

// Entry is a cached conversion result.
type Entry struct {
	Output    string
	LossClass string
	CreatedAt time.Time
}

// Store is a persistent cache of conversion results backed by SQLite.
// Outputs are stored xz-compressed and keyed by a BLAKE3 hash of the
// source format, target format, and input text. A TTL-bounded in-memory
// layer sits in front of the database for repeated lookups.
type Store struct {
	db  *sql.DB
	hot *TTLCache[string, Entry]
}

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	key        TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	loss_class TEXT NOT NULL,
	output     BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at);
`

// hotTTL bounds how long entries stay in the in-memory layer before
// lookups fall through to the database again.
const hotTTL = 5 * time.Minute

// OpenStore opens (or creates) a conversion cache at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return &Store{
		db:  db,
		hot: New[string, Entry](hotTTL),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key computes the cache key for a conversion request.
func Key(source, target, input string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\x00%s\x00", source, target)
	buf.WriteString(input)
	return ast.HashBytes(buf.Bytes())
}

// Get looks up a cached conversion. Returns ok=false on a miss.
func (s *Store) Get(source, target, input string) (Entry, bool, error) {
	key := Key(source, target, input)

	if e, ok := s.hot.Get(key); ok {
		return e, true, nil
	}

	var (
		lossClass string
		blob      []byte
		createdAt int64
	)
	row := s.db.QueryRow(
		`SELECT loss_class, output, created_at FROM conversions WHERE key = ?`, key)
	err := row.Scan(&lossClass, &blob, &createdAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache: %w", err)
	}

	output, err := decompress(blob)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decompress cached output: %w", err)
	}

	e := Entry{
		Output:    output,
		LossClass: lossClass,
		CreatedAt: time.Unix(createdAt, 0),
	}
	s.hot.Set(key, e)
	return e, true, nil
}

// Put stores a conversion result, replacing any existing entry.
func (s *Store) Put(source, target, input, output, lossClass string) error {
	key := Key(source, target, input)

	blob, err := compress(output)
	if err != nil {
		return fmt.Errorf("compress output: %w", err)
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO conversions (key, source, target, loss_class, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, source, target, lossClass, blob, now.Unix())
	if err != nil {
		return fmt.Errorf("store conversion: %w", err)
	}

	s.hot.Set(key, Entry{Output: output, LossClass: lossClass, CreatedAt: now})
	return nil
}

// Prune removes entries at or older than the given age and invalidates
// the in-memory layer. Returns the number of rows removed. Timestamps
// have second resolution, so the cutoff is inclusive: Prune(0) removes
// entries written within the current second.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := s.db.Exec(`DELETE FROM conversions WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	s.hot.Invalidate()
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Len returns the number of persisted entries.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM conversions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

func compress(output string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, output); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) (string, error) {
	r, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
