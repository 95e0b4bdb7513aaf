package cli

import (
	"bytes"
	"path/filepath"
	"time"

	"github.com/dirstrata/strata/internal/config"
	"github.com/dirstrata/strata/internal/revision"
	"github.com/dirstrata/strata/internal/snapstore"
)

// strataConfig loads the merged global+repo configuration.
func strataConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// storeDirPath resolves the revision store directory for workDir,
// given the loaded config's Core.StoreDir (relative paths are
// anchored at workDir).
func storeDirPath(workDir string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.Core.StoreDir) {
		return cfg.Core.StoreDir
	}
	return filepath.Join(workDir, cfg.Core.StoreDir)
}

// indexDBPath is the snapstore index file kept alongside the canonical
// revision_N files, never itself part of the canonical format.
func indexDBPath(storeDir string) string {
	return filepath.Join(storeDir, "index.db")
}

func createBaseRevision(workDir string, compress bool) (*revision.Revision, error) {
	return revision.CreateBase(workDir, compress)
}

func saveRevisionAtomic(storeDir string, rev *revision.Revision) error {
	return revision.SaveToFileAtomic(storeDir, rev)
}

// indexRevision records rev's metadata (and a blake3 digest of its
// on-disk bytes) in the store's derived snapstore index.
func indexRevision(storeDir string, rev *revision.Revision, workDir string) error {
	db, err := snapstore.Open(indexDBPath(storeDir))
	if err != nil {
		return err
	}
	defer db.Close()

	var buf bytes.Buffer
	if err := revision.Save(&buf, rev); err != nil {
		return err
	}

	entryCount := uint64(0)
	if rev.BaseTree != nil {
		entryCount = rev.BaseTree.EntryCount
	}

	rec := snapstore.RevisionRecord{
		Version:     rev.Version,
		BaseVersion: rev.BaseVersion,
		CommittedAt: time.Now(),
		EntryCount:  entryCount,
		Digest:      snapstore.Digest(buf.Bytes()),
	}
	return db.PutRevisionRecord(rec)
}
