// Package blob implements Blob: file content plus POSIX metadata,
// optionally zlib-compressed.
package blob

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"syscall"

	"github.com/dirstrata/strata/internal/snaperr"
)

// Timespec is a (seconds, nanoseconds) pair, matching the wire layout
// a POSIX struct timespec would occupy.
type Timespec struct {
	Sec  int64
	Nsec int64
}

func fromStdTime(sec, nsec int64) Timespec { return Timespec{Sec: sec, Nsec: nsec} }

// Blob holds a file's content plus the metadata needed to restore it.
type Blob struct {
	UncompressedSize uint64
	StoredSize       uint64
	Data             []byte
	Mode             uint32
	UID              uint32
	GID              uint32
	Atime            Timespec
	Mtime            Timespec
	Ctime            Timespec

	// LinkTarget mirrors the original format's dead field: the
	// traversal that builds a Blob never follows or records symlinks
	// (they are skipped, see tree.BuildFromDir), so this is always
	// empty. Kept for wire-format parity with the source design.
	LinkTarget string
}

// Create reads file_path (symlink-no-follow via Lstat) and builds a
// Blob. When compress is true the stored buffer is a zlib deflate
// stream of the raw content; otherwise StoredSize == UncompressedSize
// and Data is the raw bytes.
func Create(filePath string, compress bool) (*Blob, error) {
	const op = "blob.Create"

	st, err := os.Lstat(filePath)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}

	b := &Blob{
		UncompressedSize: uint64(len(raw)),
	}

	if compress {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, snaperr.Wrap(snaperr.CompressionError, op, err)
		}
		if err := w.Close(); err != nil {
			return nil, snaperr.Wrap(snaperr.CompressionError, op, err)
		}
		b.Data = buf.Bytes()
		b.StoredSize = uint64(len(b.Data))
	} else {
		b.Data = raw
		b.StoredSize = b.UncompressedSize
	}

	fillStatMetadata(b, st)
	return b, nil
}

// fillStatMetadata extracts mode/uid/gid/a-m-c-time from a Lstat
// result. The underlying syscall.Stat_t shape is platform-specific by
// design (see spec §9 on the persisted format's portability scope).
func fillStatMetadata(b *Blob, st os.FileInfo) {
	b.Mode = uint32(st.Mode().Perm()) | modeTypeBits(st)
	if sys, ok := st.Sys().(*syscall.Stat_t); ok {
		b.UID = sys.Uid
		b.GID = sys.Gid
		b.Atime = fromStdTime(int64(sys.Atim.Sec), int64(sys.Atim.Nsec))
		b.Mtime = fromStdTime(int64(sys.Mtim.Sec), int64(sys.Mtim.Nsec))
		b.Ctime = fromStdTime(int64(sys.Ctim.Sec), int64(sys.Ctim.Nsec))
	}
}

// modeTypeBits recovers the S_IFREG bits so Mode matches the "%06o"
// octal rendering a `struct stat.st_mode` would produce.
func modeTypeBits(st os.FileInfo) uint32 {
	if st.Mode().IsRegular() {
		return syscall.S_IFREG
	}
	return 0
}

// Inflate returns the blob's raw (uncompressed) content, regardless of
// whether it is currently stored compressed.
func (b *Blob) Inflate() ([]byte, error) {
	const op = "blob.Inflate"
	if b.StoredSize == b.UncompressedSize {
		return b.Data, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(b.Data))
	if err != nil {
		return nil, snaperr.Wrap(snaperr.DecompressionError, op, err)
	}
	defer r.Close()

	out := make([]byte, 0, b.UncompressedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.CopyN(buf, r, int64(b.UncompressedSize)); err != nil {
		return nil, snaperr.Wrap(snaperr.DecompressionError, op, err)
	}
	return buf.Bytes(), nil
}

// IsCompressed reports whether the stored buffer is a zlib stream
// rather than raw content.
func (b *Blob) IsCompressed() bool {
	return b.StoredSize != b.UncompressedSize
}
