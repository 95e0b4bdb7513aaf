package revision

import (
	"fmt"
	"os"

	"github.com/dirstrata/strata/internal/snaperr"
)

// ErrBrokenChain marks a broken revision chain: surfaced as the Err
// field of a CorruptRevision snaperr.Error from ListRevisions.
type ErrBrokenChain struct {
	Version     int32
	BaseVersion int32
}

func (e *ErrBrokenChain) Error() string {
	return fmt.Sprintf("revision %d references base_version %d which is not a contiguous prior revision", e.Version, e.BaseVersion)
}

// ListRevisions loads every revision_0, revision_1, ... file in
// storeDir until the first gap (mirroring revision.c's get_revisions),
// then validates that the chain is contiguous: version 0 must be a
// base, and every later version's base_version must be an earlier
// version already present in the store. This validation has no C
// counterpart -- the original trusts the chain unconditionally. A file
// that fails to load, or whose header breaks the chain, is an error; a
// missing file ends the list, and any later revision files are not
// listed and not reported.
func ListRevisions(storeDir string) ([]*Revision, error) {
	const op = "revision.ListRevisions"

	var revisions []*Revision
	for v := 0; ; v++ {
		path := revisionFileName(storeDir, v)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return nil, snaperr.Wrap(snaperr.IOError, op, err)
		}
		rev, err := LoadFromFile(storeDir, v)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}

	if err := validateChain(revisions); err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
	}
	return revisions, nil
}

func validateChain(revisions []*Revision) error {
	if len(revisions) == 0 {
		return nil
	}
	if revisions[0].BaseVersion != noBase {
		return &ErrBrokenChain{Version: revisions[0].Version, BaseVersion: revisions[0].BaseVersion}
	}
	seen := map[int32]bool{revisions[0].Version: true}
	for _, rev := range revisions[1:] {
		if rev.BaseVersion == noBase {
			return &ErrBrokenChain{Version: rev.Version, BaseVersion: rev.BaseVersion}
		}
		if !seen[rev.BaseVersion] {
			return &ErrBrokenChain{Version: rev.Version, BaseVersion: rev.BaseVersion}
		}
		seen[rev.Version] = true
	}
	return nil
}
