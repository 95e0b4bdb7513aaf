// Package tree implements Tree: a named hierarchy of entries, each
// either a sub-tree or a blob, with a content hash and a canonical
// binary serialization.
package tree

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/dirstrata/strata/internal/blob"
	"github.com/dirstrata/strata/internal/snaperr"
)

// Kind discriminates a tree entry's payload.
type Kind uint8

const (
	KindBlob Kind = iota + 1
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Hash is a SHA-1 content digest, 20 bytes.
type Hash [20]byte

// MaxNameLen is the bound on an entry's Name, in bytes (§3).
const MaxNameLen = 255

// Entry is one named child of a Tree: exactly one of Blob or Sub is
// populated, matching Kind.
type Entry struct {
	Name string
	Mode string // "%06o"-formatted, e.g. "100644" or "040755"
	Kind Kind
	Hash Hash

	Blob *blob.Blob
	Sub  *Tree
}

// ValidateName rejects empty names, names over MaxNameLen, and any
// path separator (§3).
func ValidateName(name string) error {
	const op = "tree.ValidateName"
	if name == "" {
		return snaperr.Wrap(snaperr.InvalidArgument, op, fmt.Errorf("empty entry name"))
	}
	if len(name) > MaxNameLen {
		return snaperr.Wrap(snaperr.InvalidArgument, op, fmt.Errorf("name %q exceeds %d bytes", name, MaxNameLen))
	}
	if strings.ContainsRune(name, '/') {
		return snaperr.Wrap(snaperr.InvalidArgument, op, fmt.Errorf("name %q contains a path separator", name))
	}
	return nil
}

// blobEntryHash is SHA-1 over the blob's stored bytes (§4.2): the
// digest covers whatever is actually persisted, compressed or not.
// Deserialize and Restore do not re-verify it against the data.
func blobEntryHash(b *blob.Blob) Hash {
	return Hash(sha1.Sum(b.Data))
}

// newBlobEntry builds a BLOB entry around a freshly-created blob.
func newBlobEntry(name string, mode uint32, b *blob.Blob) Entry {
	return Entry{
		Name: name,
		Mode: fmt.Sprintf("%06o", mode),
		Kind: KindBlob,
		Hash: blobEntryHash(b),
		Blob: b,
	}
}

// dirMode is the mode recorded for TREE entries: S_IFDIR | 0755.
const dirMode = 0040000 | 0755

// newTreeEntry builds a TREE entry. Per §4.2/§9, the entry-level hash
// field is zero-filled for sub-trees -- the sub-tree carries its own
// hash recursively, and the parent tree's hash only sees those 20
// zero bytes. Intentional wire-format quirk; do not "fix" by inlining
// the child hash here, it would change every tree hash in the format.
func newTreeEntry(name string, sub *Tree) Entry {
	return Entry{
		Name: name,
		Mode: fmt.Sprintf("%06o", dirMode),
		Kind: KindTree,
		Hash: Hash{},
		Sub:  sub,
	}
}
