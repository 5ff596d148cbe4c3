package collection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("basic export", func(t *testing.T) {
		csvData := `Count,Name,Edition,Condition
4,"Goblin Warchief",DOM,NM
1,"Krenko, Mob Boss",M13,NM
2,"Skirk Prospector",DOM,NM
`
		owned, err := Load(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Len() != 3 {
			t.Errorf("expected 3 owned names, got %d", owned.Len())
		}
		if !owned.Contains("Krenko, Mob Boss") {
			t.Error("expected comma-containing name to survive CSV parsing")
		}
	})

	t.Run("zero count rows excluded", func(t *testing.T) {
		csvData := "Count,Name\n0,Sol Ring\n3,Shock\n"
		owned, err := Load(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Contains("Sol Ring") {
			t.Error("zero-count row should be excluded")
		}
		if !owned.Contains("Shock") {
			t.Error("positive-count row should be included")
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		csvData := "Count,Name\n1,Shock\n2,Shock\n"
		owned, err := Load(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Len() != 1 {
			t.Errorf("expected duplicates to collapse, got %d entries", owned.Len())
		}
	})

	t.Run("membership is case-sensitive", func(t *testing.T) {
		csvData := "Count,Name\n1,Goblin Warchief\n"
		owned, err := Load(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Contains("goblin warchief") {
			t.Error("membership must be case-sensitive")
		}
	})

	t.Run("no count column includes all rows", func(t *testing.T) {
		csvData := "Name\nShock\nSol Ring\n"
		owned, err := Load(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Len() != 2 {
			t.Errorf("expected 2 names, got %d", owned.Len())
		}
	})

	t.Run("missing name column is an error", func(t *testing.T) {
		if _, err := Load(strings.NewReader("Count,Edition\n1,DOM\n")); err == nil {
			t.Error("expected error when Name column is missing")
		}
	})

	t.Run("empty input yields empty set", func(t *testing.T) {
		owned, err := Load(strings.NewReader(""))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if owned.Len() != 0 {
			t.Errorf("expected empty set, got %d entries", owned.Len())
		}
	})
}

func TestLoadFile_Missing(t *testing.T) {
	owned, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrNoCollection) {
		t.Errorf("expected ErrNoCollection, got %v", err)
	}
	if owned == nil || owned.Len() != 0 {
		t.Error("expected empty set alongside ErrNoCollection")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.csv")
	if err := os.WriteFile(path, []byte("Count,Name\n1,Shock\n"), 0o644); err != nil {
		t.Fatalf("failed to seed collection: %v", err)
	}

	w := NewWatcher(path, nil)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher a moment to register before rewriting
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("Count,Name\n1,Shock\n1,Sol Ring\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite collection: %v", err)
	}

	select {
	case owned := <-w.Updates():
		if !owned.Contains("Sol Ring") {
			t.Errorf("reloaded set missing new card, got %d entries", owned.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for collection reload")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled on shutdown, got %v", err)
	}
}

func TestWatcher_SurvivesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.csv")
	if err := os.WriteFile(path, []byte("Count,Name\n1,Shock\n"), 0o644); err != nil {
		t.Fatalf("failed to seed collection: %v", err)
	}

	w := NewWatcher(path, nil)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// Export tools write the new file beside the old one and rename it
	// into place rather than rewriting in place.
	replace := func(contents string) {
		t.Helper()
		tmp := filepath.Join(dir, "collection.csv.new")
		if err := os.WriteFile(tmp, []byte(contents), 0o644); err != nil {
			t.Fatalf("failed to write replacement: %v", err)
		}
		if err := os.Rename(tmp, path); err != nil {
			t.Fatalf("failed to rename replacement into place: %v", err)
		}
	}

	replace("Count,Name\n1,Shock\n1,Sol Ring\n")

	select {
	case owned := <-w.Updates():
		if !owned.Contains("Sol Ring") {
			t.Errorf("first replacement not picked up, got %d entries", owned.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update after the collection file was replaced")
	}

	// The watch must still be alive for subsequent replacements.
	replace("Count,Name\n1,Shock\n1,Sol Ring\n1,Arcane Signet\n")

	select {
	case owned := <-w.Updates():
		if !owned.Contains("Arcane Signet") {
			t.Errorf("second replacement not picked up, got %d entries", owned.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher went silent after the collection file was replaced")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled on shutdown, got %v", err)
	}
}
