package tree

import (
	"fmt"
	"io"
	"strings"
)

// maxPrintDepth and maxPrintEntries mirror the depth/cycle guards the
// original implementation's print_tree/print_tree_entry carried (see
// original_source/src/tree.c): this in-memory model cannot actually
// cycle, but the limits are cheap and worth keeping as a sanity check
// against pathologically deep or huge trees.
const (
	maxPrintDepth   = 100
	maxPrintEntries = 1_000_000
)

// Print writes a human-readable, depth-indented rendering of t to w,
// one line per entry plus its hash in hex.
func Print(w io.Writer, t *Tree) error {
	fmt.Fprintf(w, "Tree Structure:\n")
	total := 0
	return printTree(w, t, 0, &total)
}

func printTree(w io.Writer, t *Tree, depth int, total *int) error {
	if depth >= maxPrintDepth {
		fmt.Fprintf(w, "%swarning: maximum depth reached, stopping\n", indent(depth))
		return fmt.Errorf("tree exceeds max print depth %d", maxPrintDepth)
	}

	fmt.Fprintf(w, "%sTree: entries=%d hash=%x\n", indent(depth), t.EntryCount, t.Hash[:])

	for _, name := range sortedCopy(t.names()) {
		idx, err := t.IndexByName()
		if err != nil {
			return err
		}
		e := t.Entries[idx[name]]
		if err := printEntry(w, e, depth+1, total); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(w io.Writer, e Entry, depth int, total *int) error {
	if *total > maxPrintEntries {
		fmt.Fprintf(w, "%swarning: too many entries, stopping\n", indent(depth))
		return fmt.Errorf("tree exceeds max print entries %d", maxPrintEntries)
	}
	*total++

	fmt.Fprintf(w, "%s%s %s %s %x\n", indent(depth), e.Mode, e.Kind, e.Name, e.Hash[:])

	if e.Kind == KindBlob && e.Blob != nil {
		fmt.Fprintf(w, "%sBlob: uncompressed=%d stored=%d\n", indent(depth+1), e.Blob.UncompressedSize, e.Blob.StoredSize)
	}
	if e.Kind == KindTree && e.Sub != nil {
		return printTree(w, e.Sub, depth+1, total)
	}
	return nil
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
