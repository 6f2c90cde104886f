package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifestTableSetGetDelete(t *testing.T) {
	dir := t.TempDir()
	table, err := LoadManifestTable(dir)
	if err != nil {
		t.Fatalf("LoadManifestTable: %v", err)
	}

	if _, ok := table.Get("missing"); ok {
		t.Fatalf("expected no entry for missing basename")
	}

	parts := []string{"aa", "bb", "cc"}
	if err := table.Set("file.bin", parts); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := table.Get("file.bin")
	if !ok {
		t.Fatalf("expected entry after Set")
	}
	if len(got) != 3 || got[0] != "aa" || got[2] != "cc" {
		t.Fatalf("unexpected parts: %v", got)
	}

	if err := table.Delete("file.bin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := table.Get("file.bin"); ok {
		t.Fatalf("expected entry gone after Delete")
	}

	// deleting an absent basename is a no-op
	if err := table.Delete("file.bin"); err != nil {
		t.Fatalf("Delete of absent basename should be a no-op, got %v", err)
	}
}

func TestManifestTableSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	table, err := LoadManifestTable(dir)
	if err != nil {
		t.Fatalf("LoadManifestTable: %v", err)
	}
	if err := table.Set("a", []string{"d1", "d2"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reloaded, err := LoadManifestTable(dir)
	if err != nil {
		t.Fatalf("LoadManifestTable (reload): %v", err)
	}
	parts, ok := reloaded.Get("a")
	if !ok || len(parts) != 2 {
		t.Fatalf("expected manifest to survive reload, got %v", parts)
	}
}

func TestManifestTableIsWrittenViaTempAndRename(t *testing.T) {
	dir := t.TempDir()
	table, err := LoadManifestTable(dir)
	if err != nil {
		t.Fatalf("LoadManifestTable: %v", err)
	}
	if err := table.Set("x", []string{"d1"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != manifestFileName {
		t.Fatalf("expected exactly %q on disk, got %v", manifestFileName, entries)
	}
	if _, err := os.Stat(filepath.Join(dir, manifestFileName)); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}

func TestUniqueOrderedPreservesFirstOccurrence(t *testing.T) {
	got := uniqueOrdered([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", got, want)
		}
	}
}
