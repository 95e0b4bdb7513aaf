package revision

import (
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/dirstrata/strata/internal/snaperr"
)

// SaveToFileAtomic writes rev to storeDir/revision_<version> via a
// temp-file-then-rename so a crash mid-write never leaves a partial
// revision file where a reader expects a complete one. This is the
// staging layer above the core that §9 recommends; the core format
// itself (Save/Load) stays a plain stream writer.
func SaveToFileAtomic(storeDir string, rev *Revision) error {
	const op = "revision.SaveToFileAtomic"

	path := revisionFileName(storeDir, int(rev.Version))
	t, err := renameio.TempFile(storeDir, path)
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer t.Cleanup()

	if err := Save(t, rev); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	return nil
}

// RestoreAtomic restores targetVersion into a staging directory next
// to outputDir, then renames it into place: a failed or interrupted
// restore never leaves a partially-written tree at the path the user
// actually asked for.
func RestoreAtomic(storeDir string, targetVersion int, outputDir string) error {
	const op = "revision.RestoreAtomic"

	parent := filepath.Dir(outputDir)
	staging, err := os.MkdirTemp(parent, ".strata-restore-*")
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer os.RemoveAll(staging)

	if err := Restore(storeDir, targetVersion, staging); err != nil {
		return err
	}

	if err := os.RemoveAll(outputDir); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	if err := os.Rename(staging, outputDir); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	return nil
}
