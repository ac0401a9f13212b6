package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKV(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	if _, ok, err := Get(ctx, db, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := Put(ctx, db, "k", "v1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := Put(ctx, db, "k", "v2"); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	v, ok, err := Get(ctx, db, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}

	if err := Delete(ctx, db, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := Delete(ctx, db, "k"); err != nil {
		t.Fatalf("Delete() twice error = %v", err)
	}
	if _, ok, _ := Get(ctx, db, "k"); ok {
		t.Error("key still present after Delete")
	}
}

func TestCache_Calls(t *testing.T) {
	cache := NewCache(setupDB(t))
	ctx := context.Background()

	calls, err := cache.LoadCalls(ctx)
	if err != nil || calls != nil {
		t.Fatalf("LoadCalls() on empty cache = %v, %v; want nil, nil", calls, err)
	}

	want := record.MockCalls()
	if err := cache.SaveCalls(ctx, want); err != nil {
		t.Fatalf("SaveCalls() error = %v", err)
	}
	got, err := cache.LoadCalls(ctx)
	if err != nil {
		t.Fatalf("LoadCalls() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "rec1" || got[0].ExecutiveBrief == nil {
		t.Fatalf("LoadCalls() = %+v", got)
	}
	if got[1].ExecutiveBrief.ActionItems[0] != want[1].ExecutiveBrief.ActionItems[0] {
		t.Error("brief did not survive the round trip")
	}

	if err := cache.SaveCalls(ctx, nil); err != nil {
		t.Fatalf("SaveCalls(nil) error = %v", err)
	}
	got, err = cache.LoadCalls(ctx)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("LoadCalls() after empty save = %v, %v; want empty non-nil", got, err)
	}

	if err := cache.ClearCalls(ctx); err != nil {
		t.Fatalf("ClearCalls() error = %v", err)
	}
	if got, _ := cache.LoadCalls(ctx); got != nil {
		t.Errorf("LoadCalls() after clear = %v", got)
	}
}

func TestCache_CorruptCalls(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	if err := Put(ctx, db, CallsKey, "{not json"); err != nil {
		t.Fatal(err)
	}

	calls, err := NewCache(db).LoadCalls(ctx)
	if err == nil {
		t.Fatal("LoadCalls() expected error for corrupt cache")
	}
	if calls != nil {
		t.Errorf("LoadCalls() = %v, want nil", calls)
	}
}

func TestCache_Theme(t *testing.T) {
	cache := NewCache(setupDB(t))
	ctx := context.Background()

	theme, err := cache.Theme(ctx)
	if err != nil || theme != ThemeLight {
		t.Fatalf("Theme() default = %q, %v", theme, err)
	}

	next, err := cache.ToggleTheme(ctx)
	if err != nil || next != ThemeDark {
		t.Fatalf("ToggleTheme() = %q, %v", next, err)
	}
	if theme, _ := cache.Theme(ctx); theme != ThemeDark {
		t.Errorf("Theme() after toggle = %q", theme)
	}

	err = cache.SetTheme(ctx, "solarized")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("SetTheme(invalid) error = %v, want INVALID_REQUEST", err)
	}
}
