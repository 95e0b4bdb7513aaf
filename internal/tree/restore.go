package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dirstrata/strata/internal/blob"
	"github.com/dirstrata/strata/internal/snaperr"
)

// Restore materializes t onto the filesystem at dirPath: creates the
// directory (idempotent), then writes each entry in order. TREE
// entries recurse; BLOB entries are inflated if compressed, written,
// chmod'd, chown'd (non-fatal on failure), and time-stamped to
// nanosecond precision (§4.2).
func (t *Tree) Restore(dirPath string) error {
	const op = "tree.Restore"

	if err := os.MkdirAll(dirPath, 0o777); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	for _, e := range t.Entries {
		full := filepath.Join(dirPath, e.Name)

		switch e.Kind {
		case KindTree:
			if e.Sub == nil {
				return snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("tree entry %q missing payload", e.Name))
			}
			if err := e.Sub.Restore(full); err != nil {
				return err
			}

		case KindBlob:
			if e.Blob == nil {
				return snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("blob entry %q missing payload", e.Name))
			}
			if err := restoreBlob(full, e.Blob); err != nil {
				return err
			}

		default:
			return snaperr.Wrap(snaperr.CorruptTree, op, fmt.Errorf("unknown entry kind %d for %q", e.Kind, e.Name))
		}
	}
	return nil
}

// restoreBlob writes one file's content and metadata. Only chown
// failure is non-fatal (§4.2, §7): unprivileged processes routinely
// can't change ownership, and the spec calls that out explicitly as a
// warning-only condition.
func restoreBlob(path string, b *blob.Blob) error {
	const op = "tree.restoreBlob"

	data, err := b.Inflate()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o666); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	if err := os.Chmod(path, os.FileMode(b.Mode&0o7777)); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	if err := os.Chown(path, int(b.UID), int(b.GID)); err != nil {
		// Non-fatal: common for non-privileged processes (§7).
	}

	atime := time.Unix(b.Atime.Sec, b.Atime.Nsec)
	mtime := time.Unix(b.Mtime.Sec, b.Mtime.Nsec)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}

	return nil
}
