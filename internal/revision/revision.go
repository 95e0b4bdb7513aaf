// Package revision implements Revision: either a base tree (version 0)
// or a delta chained to a prior version, each hash-chained to the one
// it builds on.
package revision

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirstrata/strata/internal/delta"
	"github.com/dirstrata/strata/internal/snaperr"
	"github.com/dirstrata/strata/internal/tree"
)

// Hash is a SHA-1 digest, 20 bytes.
type Hash [20]byte

// noBase marks a Revision with no base_version, i.e. the base itself
// (§5: stored as -1 in the original format).
const noBase = -1

// Revision is either a base tree (BaseVersion == -1, BaseTree set) or a
// delta against an earlier version (BaseVersion >= 0, Delta set).
// Exactly one of BaseTree/Delta is populated.
type Revision struct {
	Version     int32
	BaseVersion int32
	Hash        Hash

	BaseTree *tree.Tree
	Delta    *delta.TreeDelta
}

// revisionFileName matches the original on-disk naming: revision_<N>,
// no padding (revision.c: "%s/revision_%d").
func revisionFileName(storeDir string, version int) string {
	return filepath.Join(storeDir, fmt.Sprintf("revision_%d", version))
}

// CreateBase snapshots dirPath into a version-0 Revision: a full tree
// plus SHA-1(serialize(tree)) (§5).
func CreateBase(dirPath string, compress bool) (*Revision, error) {
	const op = "revision.CreateBase"

	t, err := tree.BuildFromDir(dirPath, compress)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tree.Serialize(&buf, t); err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}

	return &Revision{
		Version:     0,
		BaseVersion: noBase,
		Hash:        Hash(sha1.Sum(buf.Bytes())),
		BaseTree:    t,
	}, nil
}

// CreateDelta computes dirPath's delta against base's tree and assigns
// it the next free version number in storeDir (probed upward from 1,
// matching revision.c's create_delta_revision). The hash chains to the
// base: SHA-1(base.hash || serialize(delta)) (§5).
func CreateDelta(storeDir string, base *Revision, dirPath string, compress bool) (*Revision, error) {
	const op = "revision.CreateDelta"

	if base == nil {
		return nil, snaperr.Wrap(snaperr.InvalidArgument, op, fmt.Errorf("base revision is nil"))
	}
	if base.BaseTree == nil {
		return nil, snaperr.Wrap(snaperr.MissingBase, op, fmt.Errorf("base revision %d has no tree payload", base.Version))
	}

	current, err := tree.BuildFromDir(dirPath, compress)
	if err != nil {
		return nil, err
	}

	d, err := delta.Compute(base.BaseTree, current)
	if err != nil {
		return nil, err
	}

	nextVersion, err := nextFreeVersion(storeDir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(base.Hash[:])
	if err := delta.Serialize(&buf, d); err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}

	return &Revision{
		Version:     int32(nextVersion),
		BaseVersion: base.Version,
		Hash:        Hash(sha1.Sum(buf.Bytes())),
		Delta:       d,
	}, nil
}

// nextFreeVersion probes revision_1, revision_2, ... until a gap,
// mirroring revision.c's create_delta_revision (which never reassigns
// revision_0: that slot is reserved for the base).
func nextFreeVersion(storeDir string) (int, error) {
	const op = "revision.nextFreeVersion"
	v := 1
	for {
		if _, err := os.Stat(revisionFileName(storeDir, v)); err != nil {
			if os.IsNotExist(err) {
				return v, nil
			}
			return 0, snaperr.Wrap(snaperr.IOError, op, err)
		}
		v++
	}
}
