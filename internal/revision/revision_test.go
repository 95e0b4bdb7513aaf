package revision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dirstrata/strata/internal/snaperr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
}

func TestCreateBaseAndSaveLoad(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "hello")

	storeDir := t.TempDir()
	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if base.Version != 0 || base.BaseVersion != noBase {
		t.Fatalf("base version/base_version = %d/%d, want 0/-1", base.Version, base.BaseVersion)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(storeDir, 0)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Hash != base.Hash {
		t.Fatalf("loaded hash = %x, want %x", loaded.Hash[:], base.Hash[:])
	}
	if loaded.BaseTree == nil {
		t.Fatal("loaded base revision has no tree payload")
	}
}

func TestCreateDeltaChainsVersions(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")

	storeDir := t.TempDir()
	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile base: %v", err)
	}

	writeFile(t, filepath.Join(workDir, "a.txt"), "v2")
	d1, err := CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta: %v", err)
	}
	if d1.Version != 1 || d1.BaseVersion != 0 {
		t.Fatalf("delta1 version/base_version = %d/%d, want 1/0", d1.Version, d1.BaseVersion)
	}
	if err := SaveToFile(storeDir, d1); err != nil {
		t.Fatalf("SaveToFile delta1: %v", err)
	}

	writeFile(t, filepath.Join(workDir, "b.txt"), "new")
	d2, err := CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta second: %v", err)
	}
	if d2.Version != 2 {
		t.Fatalf("delta2 version = %d, want 2 (next free slot)", d2.Version)
	}
}

func TestListRevisionsAndRestoreChain(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")
	storeDir := t.TempDir()

	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	writeFile(t, filepath.Join(workDir, "a.txt"), "v2")
	d1, err := CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta: %v", err)
	}
	if err := SaveToFile(storeDir, d1); err != nil {
		t.Fatalf("SaveToFile d1: %v", err)
	}

	os.Remove(filepath.Join(workDir, "a.txt"))
	writeFile(t, filepath.Join(workDir, "c.txt"), "v3")
	d2, err := CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta d2: %v", err)
	}
	if err := SaveToFile(storeDir, d2); err != nil {
		t.Fatalf("SaveToFile d2: %v", err)
	}

	revisions, err := ListRevisions(storeDir)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revisions) != 3 {
		t.Fatalf("len(revisions) = %d, want 3", len(revisions))
	}

	outDir := t.TempDir()
	if err := Restore(storeDir, 2, outDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "c.txt"))
	if err != nil {
		t.Fatalf("ReadFile c.txt: %v", err)
	}
	if string(got) != "v3" {
		t.Fatalf("c.txt = %q, want %q", got, "v3")
	}
	if _, err := os.Stat(filepath.Join(outDir, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("expected a.txt to be absent after its delta-chain deletion")
	}
}

func TestRestoreVersionZeroIsBaseOnly(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")
	storeDir := t.TempDir()

	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	outDir := t.TempDir()
	if err := Restore(storeDir, 0, outDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("a.txt = %q, want %q", got, "v1")
	}
}

func TestRestoreMissingBaseFails(t *testing.T) {
	storeDir := t.TempDir()
	outDir := t.TempDir()

	err := Restore(storeDir, 0, outDir)
	if err == nil {
		t.Fatal("expected error restoring from a store with no revision_0")
	}
	if !snaperr.Is(err, snaperr.MissingBase) {
		t.Fatalf("Restore error kind = %v, want MissingBase", err)
	}
}

func TestRestoreRejectsWrongBaseVersionInChain(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")
	storeDir := t.TempDir()

	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile base: %v", err)
	}

	writeFile(t, filepath.Join(workDir, "a.txt"), "v2")
	d1, err := CreateDelta(storeDir, base, workDir, false)
	if err != nil {
		t.Fatalf("CreateDelta: %v", err)
	}
	if err := SaveToFile(storeDir, d1); err != nil {
		t.Fatalf("SaveToFile d1: %v", err)
	}

	// Corrupt revision_1's base_version field (offset 4) to something
	// other than 0, so replaying it against the base must be rejected.
	f, err := os.OpenFile(revisionFileName(storeDir, 1), os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	var buf [4]byte
	nativeOrder.PutUint32(buf[:], 7)
	if _, err := f.WriteAt(buf[:], 4); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	outDir := t.TempDir()
	err = Restore(storeDir, 1, outDir)
	if err == nil {
		t.Fatal("expected error restoring a chain with a revision whose base_version != 0")
	}
	if !snaperr.Is(err, snaperr.CorruptRevision) {
		t.Fatalf("Restore error kind = %v, want CorruptRevision", err)
	}
}

func TestListRevisionsDetectsBrokenChain(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.txt"), "v1")
	storeDir := t.TempDir()

	base, err := CreateBase(workDir, false)
	if err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if err := SaveToFile(storeDir, base); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	// Corrupt the on-disk base_version field (offset 4, right after the
	// version int32) so revision_0 no longer claims to be a base.
	f, err := os.OpenFile(revisionFileName(storeDir, 0), os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	var buf [4]byte
	nativeOrder.PutUint32(buf[:], 3)
	if _, err := f.WriteAt(buf[:], 4); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := ListRevisions(storeDir); err == nil {
		t.Fatal("expected error for a revision_0 whose base_version is not -1")
	}
}
