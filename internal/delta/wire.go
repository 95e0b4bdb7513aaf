package delta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dirstrata/strata/internal/snaperr"
	"github.com/dirstrata/strata/internal/tree"
)

// Canonical delta serialization (§6): three length-prefixed ordered
// sequences -- added, deleted, modified -- in that order, each element
// using the same per-entry layout the tree package defines. A modified
// element is (old_entry, new_entry, has_sub byte, [nested delta]).

// Native-endian, matching the tree package's wire format (§6, §9: the
// persisted format is platform-specific by design).
var nativeOrder = binary.NativeEndian

const deltaTagLen = 7 // "delta\0\0"

func writeFixed(w io.Writer, s string, n int) error {
	buf := make([]byte, n)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

func readFixed(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		end = len(buf)
	}
	return string(buf[:end]), nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	nativeOrder.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return nativeOrder.Uint64(b[:]), nil
}

func writeCount(w io.Writer, n int) error {
	return writeU64(w, uint64(n))
}

func readCount(r io.Reader) (uint64, error) {
	return readU64(r)
}

// Serialize writes the canonical form of d to w.
func Serialize(w io.Writer, d *TreeDelta) error {
	if err := writeFixed(w, "delta", deltaTagLen); err != nil {
		return err
	}

	if err := writeCount(w, len(d.Added)); err != nil {
		return err
	}
	for _, e := range d.Added {
		if err := tree.SerializeEntry(w, e); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(d.Deleted)); err != nil {
		return err
	}
	for _, e := range d.Deleted {
		if err := tree.SerializeEntry(w, e); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(d.Modified)); err != nil {
		return err
	}
	for _, pair := range d.Modified {
		if err := tree.SerializeEntry(w, pair.Old); err != nil {
			return err
		}
		if err := tree.SerializeEntry(w, pair.New); err != nil {
			return err
		}
		hasSub := byte(0)
		if pair.Sub != nil {
			hasSub = 1
		}
		if _, err := w.Write([]byte{hasSub}); err != nil {
			return err
		}
		if pair.Sub != nil {
			if err := Serialize(w, pair.Sub); err != nil {
				return err
			}
		}
	}

	return nil
}

// Deserialize parses the canonical form written by Serialize.
func Deserialize(r io.Reader) (*TreeDelta, error) {
	const op = "delta.Deserialize"

	typ, err := readFixed(r, deltaTagLen)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	if typ != "delta" {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("expected type %q, got %q", "delta", typ))
	}

	d := &TreeDelta{}

	addedCount, err := readCount(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	for i := uint64(0); i < addedCount; i++ {
		e, err := tree.DeserializeEntry(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		d.Added = append(d.Added, e)
	}

	deletedCount, err := readCount(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	for i := uint64(0); i < deletedCount; i++ {
		e, err := tree.DeserializeEntry(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		d.Deleted = append(d.Deleted, e)
	}

	modifiedCount, err := readCount(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	for i := uint64(0); i < modifiedCount; i++ {
		oldE, err := tree.DeserializeEntry(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		newE, err := tree.DeserializeEntry(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		pair := ModifiedPair{Old: oldE, New: newE}
		if flag[0] == 1 {
			sub, err := Deserialize(r)
			if err != nil {
				return nil, err
			}
			pair.Sub = sub
		}
		d.Modified = append(d.Modified, pair)
	}

	return d, nil
}
