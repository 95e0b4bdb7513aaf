// Package delta implements Delta: the structural difference between
// two trees, computed per level, and its in-place application.
package delta

import (
	"fmt"

	"github.com/dirstrata/strata/internal/snaperr"
	"github.com/dirstrata/strata/internal/tree"
)

// ModifiedPair is one (old, new) entry pair with equal name but
// differing hash. If both sides are sub-trees, Sub carries the
// recursive delta; Old and New still hold full deep copies of both
// entries, sub-trees included, and are serialized in full.
type ModifiedPair struct {
	Old tree.Entry
	New tree.Entry
	Sub *TreeDelta // non-nil only when Old and New are both KindTree
}

// TreeDelta is the per-level structural difference between two trees.
type TreeDelta struct {
	Added    []tree.Entry
	Deleted  []tree.Entry
	Modified []ModifiedPair
}

// Compute builds delta(old, new): entries in new-not-old are Added,
// old-not-new are Deleted, and same-name-different-hash pairs are
// Modified (recursing when both sides are trees). Ordering follows
// the source tree: new for Added/Modified, old for Deleted (§4.3),
// except that an entry whose kind changed is deleted and re-added, and
// such deletions come first in Deleted, in new-tree order.
func Compute(old, newT *tree.Tree) (*TreeDelta, error) {
	const op = "delta.Compute"

	oldIdx, err := old.IndexByName()
	if err != nil {
		return nil, err
	}
	newIdx, err := newT.IndexByName()
	if err != nil {
		return nil, err
	}

	d := &TreeDelta{}

	for _, ne := range newT.Entries {
		oi, inOld := oldIdx[ne.Name]
		if !inOld {
			d.Added = append(d.Added, deepCopyEntry(ne))
			continue
		}
		oe := old.Entries[oi]
		if oe.Kind != ne.Kind {
			// Type changed: treat as delete + add (§4.3).
			d.Deleted = append(d.Deleted, deepCopyEntry(oe))
			d.Added = append(d.Added, deepCopyEntry(ne))
			continue
		}
		if oe.Kind == tree.KindTree {
			// TREE entry hashes are always zero-filled, so a sub-tree
			// counts as modified when its own recursive delta is non-empty.
			sub, err := Compute(oe.Sub, ne.Sub)
			if err != nil {
				return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
			}
			if len(sub.Added) == 0 && len(sub.Deleted) == 0 && len(sub.Modified) == 0 {
				continue
			}
			d.Modified = append(d.Modified, ModifiedPair{Old: deepCopyEntry(oe), New: deepCopyEntry(ne), Sub: sub})
			continue
		}
		if oe.Hash == ne.Hash {
			continue
		}
		d.Modified = append(d.Modified, ModifiedPair{Old: deepCopyEntry(oe), New: deepCopyEntry(ne)})
	}

	for _, oe := range old.Entries {
		if _, inNew := newIdx[oe.Name]; !inNew {
			d.Deleted = append(d.Deleted, deepCopyEntry(oe))
		}
	}

	return d, nil
}

// deepCopyEntry copies an entry including its owned blob/sub-tree
// payload, so a TreeDelta never aliases the source trees (§4.3:
// "deep-copy the entry including any sub-tree/blob payload").
func deepCopyEntry(e tree.Entry) tree.Entry {
	out := e
	if e.Blob != nil {
		b := *e.Blob
		b.Data = append([]byte(nil), e.Blob.Data...)
		out.Blob = &b
	}
	if e.Sub != nil {
		out.Sub = deepCopyTree(e.Sub)
	}
	return out
}

func deepCopyTree(t *tree.Tree) *tree.Tree {
	out := &tree.Tree{EntryCount: t.EntryCount, Hash: t.Hash}
	out.Entries = make([]tree.Entry, len(t.Entries))
	for i, e := range t.Entries {
		out.Entries[i] = deepCopyEntry(e)
	}
	return out
}

// Apply mutates t in place: removes Deleted entries, applies
// Modified (recursing into sub-deltas or replacing payload/hash),
// appends Added entries, then recomputes t's hash (§4.3).
func Apply(t *tree.Tree, d *TreeDelta) error {
	const op = "delta.Apply"

	idx, err := t.IndexByName()
	if err != nil {
		return err
	}

	toDelete := make(map[string]bool, len(d.Deleted))
	for _, e := range d.Deleted {
		if _, ok := idx[e.Name]; !ok {
			return snaperr.Wrap(snaperr.DeltaMismatch, op, fmt.Errorf("deleted entry %q not present in tree", e.Name))
		}
		toDelete[e.Name] = true
	}

	remaining := make([]tree.Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if toDelete[e.Name] {
			continue
		}
		remaining = append(remaining, e)
	}
	t.Entries = remaining

	idx, err = t.IndexByName()
	if err != nil {
		return err
	}
	for _, pair := range d.Modified {
		i, ok := idx[pair.Old.Name]
		if !ok {
			return snaperr.Wrap(snaperr.DeltaMismatch, op, fmt.Errorf("modified entry %q not present in tree", pair.Old.Name))
		}
		if pair.Sub != nil {
			if t.Entries[i].Sub == nil {
				return snaperr.Wrap(snaperr.DeltaMismatch, op, fmt.Errorf("modified entry %q expected a sub-tree", pair.Old.Name))
			}
			if err := Apply(t.Entries[i].Sub, pair.Sub); err != nil {
				return err
			}
			if err := t.Entries[i].Sub.Rehash(); err != nil {
				return err
			}
			t.Entries[i].Hash = tree.Hash{}
		} else {
			t.Entries[i] = deepCopyEntry(pair.New)
		}
	}

	for _, e := range d.Added {
		t.Entries = append(t.Entries, deepCopyEntry(e))
	}
	t.EntryCount = uint64(len(t.Entries))

	return t.Rehash()
}
