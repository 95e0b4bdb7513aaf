package tree

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dirstrata/strata/internal/blob"
	"github.com/dirstrata/strata/internal/snaperr"
)

// Tree is an ordered set of named entries (sub-trees or blobs).
type Tree struct {
	EntryCount uint64
	Entries    []Entry
	Hash       Hash
}

// reservedStoreDir is the revision-store directory name skipped during
// traversal so a store nested inside the directory it snapshots never
// snapshots itself. Hardcoded by name rather than threaded through as
// a parameter, the same way the teacher's own traversal code hardcodes
// skipping ".git"/".ivaldi".
const reservedStoreDir = ".strata"

// BuildFromDir walks dirPath and builds a Tree. Entries are appended
// in directory-read order (§4.2: "no sort is imposed"); symlinks,
// devices and FIFOs are skipped silently, matching the original's
// current (undecided, see DESIGN.md) behavior.
func BuildFromDir(dirPath string, compress bool) (*Tree, error) {
	const op = "tree.BuildFromDir"

	f, err := os.Open(dirPath)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	names, err := f.Readdirnames(-1)
	closeErr := f.Close()
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	if closeErr != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, closeErr)
	}

	t := &Tree{}
	for _, name := range names {
		if name == "." || name == ".." || name == reservedStoreDir {
			continue
		}
		full := filepath.Join(dirPath, name)

		st, err := os.Lstat(full)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.IOError, op, err)
		}

		switch {
		case st.IsDir():
			sub, err := BuildFromDir(full, compress)
			if err != nil {
				return nil, err
			}
			if err := ValidateName(name); err != nil {
				return nil, err
			}
			t.append(newTreeEntry(name, sub))

		case st.Mode().IsRegular():
			b, err := blob.Create(full, compress)
			if err != nil {
				return nil, err
			}
			if err := ValidateName(name); err != nil {
				return nil, err
			}
			t.append(newBlobEntry(name, uint32(st.Mode().Perm())|regularFileTypeBits, b))

		default:
			// Symlinks, devices, FIFOs: skipped. See spec §9 open
			// question; not implemented, by explicit decision.
			continue
		}
	}

	if err := t.rehash(); err != nil {
		return nil, err
	}
	return t, nil
}

const regularFileTypeBits = 0100000

func (t *Tree) append(e Entry) {
	t.Entries = append(t.Entries, e)
	t.EntryCount = uint64(len(t.Entries))
}

// rehash recomputes Hash by serializing the tree into a canonical
// buffer and taking SHA-1 of the whole thing (§4.2).
func (t *Tree) rehash() error {
	const op = "tree.rehash"
	var buf bytes.Buffer
	if err := Serialize(&buf, t); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	t.Hash = Hash(sha1.Sum(buf.Bytes()))
	return nil
}

// Rehash is the exported form of rehash, used by delta.Apply after it
// mutates a tree in place.
func (t *Tree) Rehash() error { return t.rehash() }

// IndexByName returns a name -> index map for this tree's immediate
// entries. Duplicate names are forbidden by §4.3 and surface as
// CORRUPT_TREE here.
func (t *Tree) IndexByName() (map[string]int, error) {
	const op = "tree.IndexByName"
	idx := make(map[string]int, len(t.Entries))
	for i, e := range t.Entries {
		if _, dup := idx[e.Name]; dup {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("duplicate entry name %q", e.Name))
		}
		idx[e.Name] = i
	}
	return idx, nil
}

// Clone deep-copies a Tree via serialize -> deserialize through a
// transient buffer, the canonical clone primitive per §4.4 step 2.
func (t *Tree) Clone() (*Tree, error) {
	const op = "tree.Clone"
	var buf bytes.Buffer
	if err := Serialize(&buf, t); err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	clone, err := Deserialize(&buf)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	return clone, nil
}

// names returns entry names in the original traversal order they were
// appended in (no sort is applied).
func (t *Tree) names() []string {
	out := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Name
	}
	return out
}

// sortedCopy is used only by diagnostics (Print) that want a stable,
// human-friendly order; it never feeds back into hashing.
func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
