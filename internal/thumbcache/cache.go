// Package thumbcache persists rendered thumbnails as JPEG files indexed
// by a SQLite database, trimmed least-recently-used first.
package thumbcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shellview/internal/constants"
	"shellview/internal/metrics"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS thumbnails (
	key      TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	modtime  INTEGER NOT NULL,
	size     INTEGER NOT NULL,
	dim      INTEGER NOT NULL,
	bytes    INTEGER NOT NULL,
	accessed INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_thumbnails_source ON thumbnails(source, dim);
CREATE INDEX IF NOT EXISTS idx_thumbnails_accessed ON thumbnails(accessed);
`

// Key identifies one rendered thumbnail. A changed modification time or
// size makes a new key, so stale renders are never served.
type Key struct {
	Source  string
	ModTime time.Time
	Size    int64
	Dim     int
}

func (k Key) hash() string {
	h := sha256.New()
	h.Write([]byte(k.Source))
	h.Write([]byte(strconv.FormatInt(k.ModTime.UnixNano(), 10)))
	h.Write([]byte(strconv.FormatInt(k.Size, 10)))
	h.Write([]byte(strconv.Itoa(k.Dim)))
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is safe for concurrent use.
type Cache struct {
	db       *sql.DB
	dir      string
	maxBytes int64
	maxFiles int
	now      func() time.Time

	cleanupMu  sync.Mutex
	debugPrint func(format string, args ...interface{})
}

// Open opens (or creates) the cache in dir. Zero limits fall back to the
// defaults.
func Open(dir string, maxBytes int64, maxFiles int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("thumbcache: create dir: %w", err)
	}
	dsn := filepath.Join(dir, "index.db")
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("thumbcache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("thumbcache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("thumbcache: apply schema: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = constants.ThumbnailDiskMaxBytes
	}
	if maxFiles <= 0 {
		maxFiles = constants.ThumbnailDiskMaxFiles
	}
	return &Cache{db: conn, dir: dir, maxBytes: maxBytes, maxFiles: maxFiles, now: time.Now}, nil
}

// SetDebug sets the debug print function.
func (c *Cache) SetDebug(debugFunc func(format string, args ...interface{})) {
	c.debugPrint = debugFunc
}

func (c *Cache) dbg(format string, args ...interface{}) {
	if c.debugPrint != nil {
		c.debugPrint("thumbcache: "+format, args...)
	}
}

// Close closes the index database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) filePath(hash string) string {
	return filepath.Join(c.dir, hash+".jpg")
}

// Get returns the thumbnail stored for key.
func (c *Cache) Get(ctx context.Context, key Key) (image.Image, bool, error) {
	hash := key.hash()
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thumbnails WHERE key = ?`, hash).Scan(&n)
	if err != nil {
		return nil, false, fmt.Errorf("thumbcache: lookup: %w", err)
	}
	if n == 0 {
		metrics.RecordThumbnailLookup(false)
		return nil, false, nil
	}
	return c.load(ctx, hash)
}

// Lookup returns the newest thumbnail rendered for source at dim without
// looking at the source file itself.
func (c *Cache) Lookup(ctx context.Context, source string, dim int) (image.Image, bool, error) {
	var hash string
	err := c.db.QueryRowContext(ctx,
		`SELECT key FROM thumbnails WHERE source = ? AND dim = ? ORDER BY modtime DESC LIMIT 1`,
		source, dim).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordThumbnailLookup(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("thumbcache: lookup: %w", err)
	}
	return c.load(ctx, hash)
}

func (c *Cache) load(ctx context.Context, hash string) (image.Image, bool, error) {
	f, err := os.Open(c.filePath(hash))
	if err != nil {
		// index row without a file: forget it
		_, _ = c.db.ExecContext(ctx, `DELETE FROM thumbnails WHERE key = ?`, hash)
		metrics.RecordThumbnailLookup(false)
		return nil, false, nil
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		metrics.RecordThumbnailLookup(false)
		return nil, false, fmt.Errorf("thumbcache: decode %s: %w", hash, err)
	}
	if _, err := c.db.ExecContext(ctx, `UPDATE thumbnails SET accessed = ? WHERE key = ?`, c.now().UnixNano(), hash); err != nil {
		c.dbg("touch %s: %v", hash, err)
	}
	metrics.RecordThumbnailLookup(true)
	return img, true, nil
}

// Put stores img under key, replacing older renders of the same source
// and size, then trims the cache when it is over its limits.
func (c *Cache) Put(ctx context.Context, key Key, img image.Image) error {
	hash := key.hash()
	final := c.filePath(hash)
	tmp, err := os.CreateTemp(c.dir, hash+".*.part")
	if err != nil {
		return fmt.Errorf("thumbcache: create: %w", err)
	}
	tmpName := tmp.Name()
	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: constants.ThumbnailJPEGQuality}); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("thumbcache: encode: %w", err)
	}
	info, err := tmp.Stat()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("thumbcache: write: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("thumbcache: rename: %w", err)
	}

	stale, err := c.staleKeys(ctx, key.Source, key.Dim, hash)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("thumbcache: begin: %w", err)
	}
	defer tx.Rollback()
	for _, old := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM thumbnails WHERE key = ?`, old); err != nil {
			return fmt.Errorf("thumbcache: delete stale: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO thumbnails (key, source, modtime, size, dim, bytes, accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET bytes = excluded.bytes, accessed = excluded.accessed`,
		hash, key.Source, key.ModTime.UnixNano(), key.Size, key.Dim, info.Size(), c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("thumbcache: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("thumbcache: commit: %w", err)
	}
	for _, old := range stale {
		_ = os.Remove(c.filePath(old))
	}

	files, bytes, err := c.Stats(ctx)
	if err == nil && (bytes > c.maxBytes || files > c.maxFiles) {
		if _, err := c.Cleanup(ctx); err != nil {
			c.dbg("cleanup: %v", err)
		}
	}
	return nil
}

func (c *Cache) staleKeys(ctx context.Context, source string, dim int, keep string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key FROM thumbnails WHERE source = ? AND dim = ? AND key != ?`, source, dim, keep)
	if err != nil {
		return nil, fmt.Errorf("thumbcache: query stale: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("thumbcache: scan stale: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Stats returns the number of cached thumbnails and their total size.
func (c *Cache) Stats(ctx context.Context) (files int, bytes int64, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM thumbnails`).Scan(&files, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("thumbcache: stats: %w", err)
	}
	return files, bytes, nil
}

// Cleanup removes least recently used thumbnails until the cache is
// below 80% of both limits. It returns the number removed.
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	files, total, err := c.Stats(ctx)
	if err != nil {
		return 0, err
	}
	if total <= c.maxBytes && files <= c.maxFiles {
		return 0, nil
	}
	byteTarget := int64(float64(c.maxBytes) * 0.8)
	fileTarget := int(float64(c.maxFiles) * 0.8)

	rows, err := c.db.QueryContext(ctx, `SELECT key, bytes FROM thumbnails ORDER BY accessed ASC`)
	if err != nil {
		return 0, fmt.Errorf("thumbcache: query lru: %w", err)
	}
	var victims []string
	for rows.Next() {
		if total <= byteTarget && files <= fileTarget {
			break
		}
		var key string
		var size int64
		if err := rows.Scan(&key, &size); err != nil {
			rows.Close()
			return 0, fmt.Errorf("thumbcache: scan lru: %w", err)
		}
		victims = append(victims, key)
		total -= size
		files--
	}
	rows.Close()

	for _, key := range victims {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM thumbnails WHERE key = ?`, key); err != nil {
			return 0, fmt.Errorf("thumbcache: delete: %w", err)
		}
		_ = os.Remove(c.filePath(key))
	}
	c.dbg("removed %d thumbnails", len(victims))
	return len(victims), nil
}
