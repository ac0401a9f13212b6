package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

// Cache keys.
const (
	CallsKey = "horizon_prm_calls"
	ThemeKey = "horizon_theme"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Cache is the local offline cache: the full call list and the theme
// preference, each stored verbatim under one key.
type Cache struct {
	db *sql.DB
}

// NewCache wraps an initialized database.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// LoadCalls returns the cached call list. A nil slice with a nil error means
// nothing is cached; an unparseable value is reported as an error.
func (c *Cache) LoadCalls(ctx context.Context) ([]record.CallRecord, error) {
	raw, ok, err := Get(ctx, c.db, CallsKey)
	if err != nil || !ok {
		return nil, err
	}
	var calls []record.CallRecord
	if err := json.Unmarshal([]byte(raw), &calls); err != nil {
		return nil, fmt.Errorf("cached calls are unparseable: %w", err)
	}
	if calls == nil {
		calls = []record.CallRecord{}
	}
	return calls, nil
}

// SaveCalls replaces the cached call list.
func (c *Cache) SaveCalls(ctx context.Context, calls []record.CallRecord) error {
	if calls == nil {
		calls = []record.CallRecord{}
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return errors.NewInternal(err)
	}
	return Put(ctx, c.db, CallsKey, string(data))
}

// ClearCalls drops the cached call list.
func (c *Cache) ClearCalls(ctx context.Context) error {
	return Delete(ctx, c.db, CallsKey)
}

// Theme returns the stored theme, light when unset.
func (c *Cache) Theme(ctx context.Context) (string, error) {
	v, ok, err := Get(ctx, c.db, ThemeKey)
	if err != nil {
		return "", err
	}
	if !ok || v != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetTheme stores theme, which must be dark or light.
func (c *Cache) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return errors.NewInvalidRequest(fmt.Sprintf("theme must be %q or %q", ThemeDark, ThemeLight))
	}
	return Put(ctx, c.db, ThemeKey, theme)
}

// ToggleTheme flips the stored theme and returns the new value.
func (c *Cache) ToggleTheme(ctx context.Context) (string, error) {
	cur, err := c.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := c.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
