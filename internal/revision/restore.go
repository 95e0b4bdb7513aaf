package revision

import (
	"errors"
	"fmt"
	"os"

	"github.com/dirstrata/strata/internal/delta"
	"github.com/dirstrata/strata/internal/snaperr"
)

// Restore materializes targetVersion from storeDir onto outputDir: the
// base tree is cloned (§4.4 step 2), every delta from 1 through
// targetVersion is applied in order, and the resulting tree is written
// to the filesystem (revision.c's restore_specific_revision).
func Restore(storeDir string, targetVersion int, outputDir string) error {
	const op = "revision.Restore"

	base, err := LoadFromFile(storeDir, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snaperr.Wrap(snaperr.MissingBase, op, fmt.Errorf("revision_0 not found in %s", storeDir))
		}
		return err
	}
	if base.BaseTree == nil {
		return snaperr.Wrap(snaperr.MissingBase, op, fmt.Errorf("revision_0 has no base tree payload"))
	}

	if targetVersion == 0 {
		return base.BaseTree.Restore(outputDir)
	}

	working, err := base.BaseTree.Clone()
	if err != nil {
		return err
	}

	for v := 1; v <= targetVersion; v++ {
		rev, err := LoadFromFile(storeDir, v)
		if err != nil {
			return err
		}
		if rev.BaseVersion != 0 {
			return snaperr.Wrap(snaperr.CorruptRevision, op, fmt.Errorf("revision %d has base_version %d, want 0", v, rev.BaseVersion))
		}
		if rev.Delta == nil {
			return snaperr.Wrap(snaperr.CorruptRevision, op, fmt.Errorf("revision %d has no delta payload", v))
		}
		if err := delta.Apply(working, rev.Delta); err != nil {
			return err
		}
	}

	return working.Restore(outputDir)
}
