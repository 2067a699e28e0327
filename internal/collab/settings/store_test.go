package settings

import (
	"context"
	"path/filepath"
	"testing"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "amber.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, "GamePath", `C:\Games\MM7`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, "GamePath")
	if err != nil || !ok {
		t.Fatalf("get = %q, %v, %v", got, ok, err)
	}
	if got != `C:\Games\MM7` {
		t.Fatalf("value = %q", got)
	}

	if err := store.Put(ctx, "GamePath", "/opt/mm7"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "GamePath")
	if got != "/opt/mm7" {
		t.Fatalf("value after overwrite = %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, ok, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.SetKey("  ", "x"); err == nil {
		t.Fatal("expected key error")
	}
}

func TestDeleteAndKeys(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, key := range []string{"b", "a", "c"} {
		if err := store.SetKey(key, "v"); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	removed, err := store.Delete(ctx, "b")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(ctx, "b")
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestReopenKeepsValuesAndMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "amber.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SetKey("Locale", "de-DE"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	got, ok, err := store.GetKey("Locale")
	if err != nil || !ok || got != "de-DE" {
		t.Fatalf("get = %q, %v, %v", got, ok, err)
	}
}
