package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), ".weld", "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close ledger: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenCreatesWorkDir(t *testing.T) {
	t.Parallel()

	// The .weld directory does not exist yet; Open must create it.
	store, err := Open(DefaultPath(t.TempDir()))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}
}

func TestRecordRecentRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 20, 9, 30, 0, 0, time.UTC)

	id, err := store.Record(context.Background(), Run{
		ManifestPath: "weld.yaml",
		Fingerprint:  "9f2a77c1",
		Outcome:      OutcomeOK,
		Files:        1,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	if id == "" {
		t.Fatal("record must assign an ID")
	}

	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != id {
		t.Fatalf("id = %q, want %q", got.ID, id)
	}
	if got.Fingerprint != "9f2a77c1" || got.Outcome != OutcomeOK || got.Files != 1 {
		t.Fatalf("run = %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Record(context.Background(), Run{
			ManifestPath: "weld.yaml",
			Fingerprint:  string(rune('a' + i)),
			Outcome:      OutcomeOK,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	runs, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Fingerprint != "c" || runs[1].Fingerprint != "b" {
		t.Fatalf("order = %q, %q; want c, b", runs[0].Fingerprint, runs[1].Fingerprint)
	}
}

func TestRecentRejectsZeroLimit(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.Recent(context.Background(), 0); err == nil {
		t.Fatal("expected limit error")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}
