package delta

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dirstrata/strata/internal/tree"
)

func mustBuildTree(t *testing.T, dir string) *tree.Tree {
	t.Helper()
	tr, err := tree.BuildFromDir(dir, false)
	if err != nil {
		t.Fatalf("BuildFromDir(%q): %v", dir, err)
	}
	return tr
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
}

func TestComputeIdentityIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")

	tr := mustBuildTree(t, dir)
	d, err := Compute(tr, tr)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(d.Added) != 0 || len(d.Deleted) != 0 || len(d.Modified) != 0 {
		t.Fatalf("expected empty delta for identical trees, got %+v", d)
	}
}

func TestComputeAddedDeletedModified(t *testing.T) {
	dir1 := t.TempDir()
	writeFile(t, filepath.Join(dir1, "keep.txt"), "same")
	writeFile(t, filepath.Join(dir1, "gone.txt"), "bye")
	writeFile(t, filepath.Join(dir1, "change.txt"), "before")

	old := mustBuildTree(t, dir1)

	dir2 := t.TempDir()
	writeFile(t, filepath.Join(dir2, "keep.txt"), "same")
	writeFile(t, filepath.Join(dir2, "change.txt"), "after")
	writeFile(t, filepath.Join(dir2, "new.txt"), "fresh")

	newT := mustBuildTree(t, dir2)

	d, err := Compute(old, newT)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(d.Added) != 1 || d.Added[0].Name != "new.txt" {
		t.Fatalf("expected one added entry new.txt, got %+v", d.Added)
	}
	if len(d.Deleted) != 1 || d.Deleted[0].Name != "gone.txt" {
		t.Fatalf("expected one deleted entry gone.txt, got %+v", d.Deleted)
	}
	if len(d.Modified) != 1 || d.Modified[0].Old.Name != "change.txt" {
		t.Fatalf("expected one modified entry change.txt, got %+v", d.Modified)
	}
}

func TestComputeRecursesIntoSubTrees(t *testing.T) {
	dir1 := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir1, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir1, "sub", "f.txt"), "v1")
	old := mustBuildTree(t, dir1)

	dir2 := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir2, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir2, "sub", "f.txt"), "v2")
	newT := mustBuildTree(t, dir2)

	d, err := Compute(old, newT)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(d.Modified) != 1 {
		t.Fatalf("expected 1 top-level modified (sub), got %d", len(d.Modified))
	}
	pair := d.Modified[0]
	if pair.Sub == nil {
		t.Fatal("expected nested delta for sub-tree modification")
	}
	if len(pair.Sub.Modified) != 1 || pair.Sub.Modified[0].Old.Name != "f.txt" {
		t.Fatalf("expected nested modified entry f.txt, got %+v", pair.Sub.Modified)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	dir1 := t.TempDir()
	writeFile(t, filepath.Join(dir1, "keep.txt"), "same")
	writeFile(t, filepath.Join(dir1, "gone.txt"), "bye")
	writeFile(t, filepath.Join(dir1, "change.txt"), "before")
	old := mustBuildTree(t, dir1)

	dir2 := t.TempDir()
	writeFile(t, filepath.Join(dir2, "keep.txt"), "same")
	writeFile(t, filepath.Join(dir2, "change.txt"), "after")
	writeFile(t, filepath.Join(dir2, "new.txt"), "fresh")
	newT := mustBuildTree(t, dir2)

	d, err := Compute(old, newT)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	clone, err := old.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if err := Apply(clone, d); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if clone.Hash != newT.Hash {
		t.Fatalf("applied tree hash = %x, want %x", clone.Hash[:], newT.Hash[:])
	}
}

func TestApplyMismatchOnMissingDeletedEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hi")
	tr := mustBuildTree(t, dir)

	bogus := &TreeDelta{Deleted: []tree.Entry{{Name: "does-not-exist"}}}
	if err := Apply(tr, bogus); err == nil {
		t.Fatal("expected error applying delta that deletes a nonexistent entry")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	dir1 := t.TempDir()
	writeFile(t, filepath.Join(dir1, "change.txt"), "before")
	if err := os.Mkdir(filepath.Join(dir1, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir1, "sub", "f.txt"), "v1")
	old := mustBuildTree(t, dir1)

	dir2 := t.TempDir()
	writeFile(t, filepath.Join(dir2, "change.txt"), "after")
	writeFile(t, filepath.Join(dir2, "new.txt"), "fresh")
	if err := os.Mkdir(filepath.Join(dir2, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir2, "sub", "f.txt"), "v2")
	newT := mustBuildTree(t, dir2)

	d, err := Compute(old, newT)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	var buf bytes.Buffer
	if err := Serialize(&buf, d); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if diff := cmp.Diff(d, got, cmpopts.EquateComparable(tree.Hash{})); diff != "" {
		t.Fatalf("round-tripped delta mismatch (-want +got):\n%s", diff)
	}
	if got.Modified[0].Sub == nil {
		t.Fatal("expected nested delta to survive round-trip")
	}

	clone, err := old.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if err := Apply(clone, got); err != nil {
		t.Fatalf("Apply(round-tripped delta): %v", err)
	}
	if clone.Hash != newT.Hash {
		t.Fatalf("applying round-tripped delta gave hash %x, want %x", clone.Hash[:], newT.Hash[:])
	}
}
