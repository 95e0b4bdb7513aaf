package revision

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dirstrata/strata/internal/delta"
	"github.com/dirstrata/strata/internal/snaperr"
	"github.com/dirstrata/strata/internal/tree"
)

// Native-endian, matching the tree/delta wire formats (§6, §9).
var nativeOrder = binary.NativeEndian

// header layout: int32 version, int32 base_version, byte[20] hash,
// then either a serialized tree (base) or a serialized delta.

func writeI32(w io.Writer, v int32) error {
	var b [4]byte
	nativeOrder.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}

func readI32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(nativeOrder.Uint32(b[:])), nil
}

// Save writes r's canonical on-disk form to w (§6).
func Save(w io.Writer, r *Revision) error {
	if err := writeI32(w, r.Version); err != nil {
		return err
	}
	if err := writeI32(w, r.BaseVersion); err != nil {
		return err
	}
	if _, err := w.Write(r.Hash[:]); err != nil {
		return err
	}

	if r.BaseVersion == noBase {
		if r.BaseTree == nil {
			return fmt.Errorf("revision %d has base_version -1 but no tree payload", r.Version)
		}
		return tree.Serialize(w, r.BaseTree)
	}
	if r.Delta == nil {
		return fmt.Errorf("revision %d has base_version %d but no delta payload", r.Version, r.BaseVersion)
	}
	return delta.Serialize(w, r.Delta)
}

// Load parses the canonical form written by Save.
func Load(r io.Reader) (*Revision, error) {
	const op = "revision.Load"

	version, err := readI32(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
	}
	baseVersion, err := readI32(r)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
	}
	var hash Hash
	if _, err := io.ReadFull(r, hash[:]); err != nil {
		return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
	}

	rev := &Revision{Version: version, BaseVersion: baseVersion, Hash: hash}

	if baseVersion == noBase {
		t, err := tree.Deserialize(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
		}
		rev.BaseTree = t
	} else {
		d, err := delta.Deserialize(r)
		if err != nil {
			return nil, snaperr.Wrap(snaperr.CorruptRevision, op, err)
		}
		rev.Delta = d
	}
	return rev, nil
}

// SaveToFile writes rev to storeDir/revision_<version>, overwriting any
// existing file. See atomic.go for the renameio-backed variant used by
// the CLI layer.
func SaveToFile(storeDir string, rev *Revision) error {
	const op = "revision.SaveToFile"
	f, err := os.Create(revisionFileName(storeDir, int(rev.Version)))
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer f.Close()
	if err := Save(f, rev); err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	return nil
}

// LoadFromFile reads storeDir/revision_<version>.
func LoadFromFile(storeDir string, version int) (*Revision, error) {
	const op = "revision.LoadFromFile"
	f, err := os.Open(revisionFileName(storeDir, version))
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	defer f.Close()
	return Load(f)
}
