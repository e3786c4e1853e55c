// Package cache is a translation memory: phrases translated before, keyed by
// the hash of their source text.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"harlowe-toolbox/internal/textutil"
)

// DB is the subset of *pgxpool.Pool the memory uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS phrase_memory (
	hash       TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	getSQL    = `SELECT translated FROM phrase_memory WHERE hash = $1`
	upsertSQL = `INSERT INTO phrase_memory (hash, source, translated) VALUES ($1, $2, $3)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`
	listSQL = `SELECT hash, translated FROM phrase_memory`
)

// Memory provides in-memory + optional PostgreSQL-backed storage for
// translations. A Memory without a database only lives as long as the process.
type Memory struct {
	db     DB
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// New creates a memory backed by db. db may be nil.
func New(db DB) *Memory {
	return &Memory{
		db:     db,
		memory: make(map[string]string),
	}
}

// EnsureSchema creates the backing table if needed.
func (c *Memory) EnsureSchema(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create phrase_memory: %w", err)
	}
	return nil
}

// Get retrieves a remembered translation.
func (c *Memory) Get(ctx context.Context, source string) (string, bool) {
	hash := textutil.Hash(source)

	c.mu.RLock()
	v, ok := c.memory[hash]
	c.mu.RUnlock()
	if ok || c.db == nil {
		return v, ok
	}

	var translated string
	if err := c.db.QueryRow(ctx, getSQL, hash).Scan(&translated); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Err(err).Msg("Translation memory lookup failed")
		}
		return "", false
	}

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation.
func (c *Memory) Set(ctx context.Context, source, translated string) error {
	hash := textutil.Hash(source)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	if _, err := c.db.Exec(ctx, upsertSQL, hash, source, translated); err != nil {
		return fmt.Errorf("memory set: %w", err)
	}
	return nil
}

// SetBatch stores many translations in one round trip.
func (c *Memory) SetBatch(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	c.mu.Lock()
	for source, translated := range pairs {
		hash := textutil.Hash(source)
		c.memory[hash] = translated
		b.Queue(upsertSQL, hash, source, translated)
	}
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	if err := c.db.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("memory set batch: %w", err)
	}
	log.Debug().Int("count", len(pairs)).Msg("Stored translations")
	return nil
}

// Preload loads every stored translation into memory.
func (c *Memory) Preload(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	rows, err := c.db.Query(ctx, listSQL)
	if err != nil {
		return fmt.Errorf("preload memory: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("scan memory row: %w", err)
		}
		c.memory[hash] = translated
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload memory: %w", err)
	}

	log.Info().Int("count", n).Msg("Preloaded translation memory")
	return nil
}

// Lookup returns the remembered translation of every phrase that has one.
func (c *Memory) Lookup(ctx context.Context, phrases []string) map[string]string {
	out := make(map[string]string)
	for _, p := range phrases {
		if v, ok := c.Get(ctx, p); ok {
			out[p] = v
		}
	}
	return out
}

// Len returns the number of translations held in memory.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
