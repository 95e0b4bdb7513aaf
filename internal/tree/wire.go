package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dirstrata/strata/internal/blob"
	"github.com/dirstrata/strata/internal/snaperr"
)

// Canonical tree serialization (§6). Fixed-size fields are written
// native-endian: the persisted format is platform-specific by design
// (spec §6, §9), not a portability contract.
var nativeOrder = binary.NativeEndian

const (
	typeFieldLen = 7   // "tree\0\0\0" / "blob\0\0\0"
	modeFieldLen = 7   // "100644\0"
	nameFieldLen = 256 // NUL-padded
)

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

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	nativeOrder.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return nativeOrder.Uint32(b[:]), nil
}

func writeI64(w io.Writer, v int64) error { return writeU64(w, uint64(v)) }
func readI64(r io.Reader) (int64, error) {
	u, err := readU64(r)
	return int64(u), err
}

func writeTimespec(w io.Writer, ts blob.Timespec) error {
	if err := writeI64(w, ts.Sec); err != nil {
		return err
	}
	return writeI64(w, ts.Nsec)
}

func readTimespec(r io.Reader) (blob.Timespec, error) {
	sec, err := readI64(r)
	if err != nil {
		return blob.Timespec{}, err
	}
	nsec, err := readI64(r)
	if err != nil {
		return blob.Timespec{}, err
	}
	return blob.Timespec{Sec: sec, Nsec: nsec}, nil
}

// Serialize writes the canonical form of t to w (§6).
func Serialize(w io.Writer, t *Tree) error {
	if err := writeFixed(w, "tree", typeFieldLen); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(t.Entries))); err != nil {
		return err
	}
	for _, e := range t.Entries {
		if err := SerializeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

// SerializeEntry writes one entry's canonical bytes: mode, kind tag,
// name, hash, then its blob payload or recursively-serialized
// sub-tree. Exported so the delta package's wire format can reuse the
// identical per-entry layout (§6: "using the same per-entry layout as
// above").
func SerializeEntry(w io.Writer, e Entry) error {
	if err := writeFixed(w, e.Mode, modeFieldLen); err != nil {
		return err
	}
	if err := writeFixed(w, e.Kind.String(), typeFieldLen); err != nil {
		return err
	}
	if err := writeFixed(w, e.Name, nameFieldLen); err != nil {
		return err
	}
	if _, err := w.Write(e.Hash[:]); err != nil {
		return err
	}

	switch e.Kind {
	case KindBlob:
		if e.Blob == nil {
			return fmt.Errorf("serialize: blob entry %q has no payload", e.Name)
		}
		return serializeBlob(w, e.Blob)
	case KindTree:
		if e.Sub == nil {
			return fmt.Errorf("serialize: tree entry %q has no payload", e.Name)
		}
		return Serialize(w, e.Sub)
	default:
		return fmt.Errorf("serialize: unknown entry kind %d for %q", e.Kind, e.Name)
	}
}

func serializeBlob(w io.Writer, b *blob.Blob) error {
	if err := writeU64(w, b.UncompressedSize); err != nil {
		return err
	}
	if err := writeU64(w, b.StoredSize); err != nil {
		return err
	}
	if _, err := w.Write(b.Data); err != nil {
		return err
	}
	if err := writeU32(w, b.Mode); err != nil {
		return err
	}
	if err := writeU32(w, b.UID); err != nil {
		return err
	}
	if err := writeU32(w, b.GID); err != nil {
		return err
	}
	if err := writeTimespec(w, b.Atime); err != nil {
		return err
	}
	if err := writeTimespec(w, b.Mtime); err != nil {
		return err
	}
	return writeTimespec(w, b.Ctime)
}

// Deserialize parses the canonical form written by Serialize.
func Deserialize(r io.Reader) (*Tree, error) {
	const op = "tree.Deserialize"

	typ, err := readFixed(r, typeFieldLen)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}
	if typ != "tree" {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("expected type %q, got %q", "tree", typ))
	}

	count, err := readU64(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
	}

	t := &Tree{EntryCount: count, Entries: make([]Entry, 0, count)}
	for i := uint64(0); i < count; i++ {
		e, err := DeserializeEntry(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptTree, op, err)
		}
		t.Entries = append(t.Entries, e)
	}

	if err := t.rehash(); err != nil {
		return nil, err
	}
	return t, nil
}

func DeserializeEntry(r io.Reader) (Entry, error) {
	mode, err := readFixed(r, modeFieldLen)
	if err != nil {
		return Entry{}, err
	}
	kindStr, err := readFixed(r, typeFieldLen)
	if err != nil {
		return Entry{}, err
	}
	name, err := readFixed(r, nameFieldLen)
	if err != nil {
		return Entry{}, err
	}
	var hash Hash
	if _, err := io.ReadFull(r, hash[:]); err != nil {
		return Entry{}, err
	}

	e := Entry{Name: name, Mode: mode, Hash: hash}

	switch kindStr {
	case "blob":
		e.Kind = KindBlob
		b, err := deserializeBlob(r)
		if err != nil {
			return Entry{}, err
		}
		e.Blob = b
	case "tree":
		e.Kind = KindTree
		sub, err := Deserialize(r)
		if err != nil {
			return Entry{}, err
		}
		e.Sub = sub
	default:
		return Entry{}, fmt.Errorf("unknown entry type %q for %q", kindStr, name)
	}
	return e, nil
}

func deserializeBlob(r io.Reader) (*blob.Blob, error) {
	uncompressed, err := readU64(r)
	if err != nil {
		return nil, err
	}
	stored, err := readU64(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, stored)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	mode, err := readU32(r)
	if err != nil {
		return nil, err
	}
	uid, err := readU32(r)
	if err != nil {
		return nil, err
	}
	gid, err := readU32(r)
	if err != nil {
		return nil, err
	}
	atime, err := readTimespec(r)
	if err != nil {
		return nil, err
	}
	mtime, err := readTimespec(r)
	if err != nil {
		return nil, err
	}
	ctime, err := readTimespec(r)
	if err != nil {
		return nil, err
	}
	return &blob.Blob{
		UncompressedSize: uncompressed,
		StoredSize:       stored,
		Data:             data,
		Mode:             mode,
		UID:              uid,
		GID:              gid,
		Atime:            atime,
		Mtime:            mtime,
		Ctime:            ctime,
	}, nil
}
