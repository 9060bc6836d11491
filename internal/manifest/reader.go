package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Reader resolves definitions from an extracted manifest content database
type Reader struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[cacheKey]any
}

type cacheKey struct {
	table string
	hash  uint32
}

// OpenReader opens a manifest content file read-only
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	return NewReader(db), nil
}

// NewReader wraps an already open manifest database
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db, cache: make(map[cacheKey]any)}
}

func (r *Reader) Close() error {
	return r.db.Close()
}

func lookup[T any](ctx context.Context, r *Reader, table string, hash uint32) (*T, error) {
	key := cacheKey{table: table, hash: hash}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached.(*T), nil
	}

	// table names come from the constants above, never from input
	var raw []byte
	err := r.db.QueryRowContext(ctx, "SELECT json FROM "+table+" WHERE id = ?", SignedID(hash)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", table, hash, ErrDefinitionNotFound)
		}
		return nil, fmt.Errorf("query %s %d: %w", table, hash, err)
	}

	def := new(T)
	if err := json.Unmarshal(raw, def); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", table, hash, err)
	}

	r.mu.Lock()
	r.cache[key] = def
	r.mu.Unlock()
	return def, nil
}

func (r *Reader) Item(ctx context.Context, hash uint32) (*InventoryItem, error) {
	return lookup[InventoryItem](ctx, r, TableInventoryItem, hash)
}

func (r *Reader) Activity(ctx context.Context, hash uint32) (*ActivityDefinition, error) {
	return lookup[ActivityDefinition](ctx, r, TableActivity, hash)
}

func (r *Reader) ActivityType(ctx context.Context, hash uint32) (*ActivityTypeDefinition, error) {
	return lookup[ActivityTypeDefinition](ctx, r, TableActivityType, hash)
}

func (r *Reader) ActivityModifier(ctx context.Context, hash uint32) (*ActivityModifierDefinition, error) {
	return lookup[ActivityModifierDefinition](ctx, r, TableActivityModifier, hash)
}
