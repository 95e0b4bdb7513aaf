// Package bundle implements export/import: packing an entire revision
// store (every revision_N file, in order) into one zstd-compressed
// archive for local transfer, and unpacking it back into a store
// directory. This is a local convenience format, not the canonical
// on-disk layout and not a network transport (§9 Non-goals).
package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/dirstrata/strata/internal/revision"
	"github.com/dirstrata/strata/internal/snaperr"
)

// magic identifies a bundle file, stored NUL-padded into a fixed-width
// field the same way tree/delta pad their own type tags.
const (
	magic        = "strata-bundle"
	magicFieldLen = 20
)

var nativeOrder = binary.NativeEndian

// Export writes every revision file in storeDir, in version order, to
// a single zstd-compressed archive at bundlePath.
func Export(storeDir, bundlePath string) error {
	const op = "bundle.Export"

	revisions, err := revision.ListRevisions(storeDir)
	if err != nil {
		return err
	}

	f, err := os.Create(bundlePath)
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return snaperr.Wrap(snaperr.CompressionError, op, err)
	}
	defer enc.Close()

	if err := writeFixed(enc, magic, magicFieldLen); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	if err := writeU64(enc, uint64(len(revisions))); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	for _, rev := range revisions {
		if err := revision.Save(enc, rev); err != nil {
			return snaperr.Wrap(snaperr.IOError, op, err)
		}
	}

	if err := enc.Close(); err != nil {
		return snaperr.Wrap(snaperr.CompressionError, op, err)
	}
	return nil
}

// Import decompresses bundlePath and writes each revision file into
// storeDir (which must not already contain a revision chain).
func Import(bundlePath, storeDir string) error {
	const op = "bundle.Import"

	f, err := os.Open(bundlePath)
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snaperr.Wrap(snaperr.DecompressionError, op, err)
	}
	defer dec.Close()

	got, err := readFixed(dec, magicFieldLen)
	if err != nil {
		return snaperr.Wrap(snaperr.DecompressionError, op, err)
	}
	if got != magic {
		return snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("not a strata bundle (bad magic %q)", got))
	}

	count, err := readU64(dec)
	if err != nil {
		return snaperr.Wrap(snaperr.DecompressionError, op, err)
	}

	if err := os.MkdirAll(storeDir, 0o777); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	for i := uint64(0); i < count; i++ {
		rev, err := revision.Load(dec)
		if err != nil {
			return err
		}
		if err := revision.SaveToFile(storeDir, rev); err != nil {
			return err
		}
	}
	return nil
}

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
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
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
