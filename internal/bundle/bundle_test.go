package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dirstrata/strata/internal/revision"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")

	storeDir := t.TempDir()
	base, err := revision.CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := revision.SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	writeFile(t, filepath.Join(workDir, "a.txt"), "v2")
	d1, err := revision.CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta: %v", err)
	}
	if err := revision.SaveToFile(storeDir, d1); err != nil {
		t.Fatalf("SaveToFile d1: %v", err)
	}

	bundlePath := filepath.Join(t.TempDir(), "store.bundle")
	if err := Export(storeDir, bundlePath); err != nil {
		t.Fatalf("Export: %v", err)
	}

	restoredStoreDir := filepath.Join(t.TempDir(), "restored-store")
	if err := Import(bundlePath, restoredStoreDir); err != nil {
		t.Fatalf("Import: %v", err)
	}

	revisions, err := revision.ListRevisions(restoredStoreDir)
	if err != nil {
		t.Fatalf("ListRevisions(restored): %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("len(revisions) = %d, want 2", len(revisions))
	}

	outDir := t.TempDir()
	if err := revision.Restore(restoredStoreDir, 1, outDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("a.txt = %q, want %q", got, "v2")
	}
}

func TestImportRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-bundle")
	writeFile(t, path, "definitely not zstd or a bundle")

	if err := Import(path, t.TempDir()); err == nil {
		t.Fatal("expected error importing a non-bundle file")
	}
}
