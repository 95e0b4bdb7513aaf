package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/colors"
	"github.com/dirstrata/strata/internal/revision"
	"github.com/dirstrata/strata/internal/snapstore"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify store integrity against the bbolt index",
	Long:  "First runs the chain check, which loads and parses every revision_N file (a truncated or corrupt file fails here). Then, for every revision, recomputes the blake3 digest over the raw on-disk bytes and compares it against the indexed digest.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	revisions, err := revision.ListRevisions(storeDir)
	if err != nil {
		return fmt.Errorf("list revisions (chain check failed): %w", err)
	}
	fmt.Printf("chain check: %s (%d revisions)\n", colors.SuccessText("OK"), len(revisions))

	db, err := snapstore.Open(indexDBPath(storeDir))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	bad := 0
	for _, rev := range revisions {
		raw, err := os.ReadFile(revisionFileName(storeDir, int(rev.Version)))
		if err != nil {
			fmt.Printf("revision %d: %s (%v)\n", rev.Version, colors.ErrorText("MISSING"), err)
			bad++
			continue
		}

		rec, err := db.GetRevisionRecord(rev.Version)
		if err != nil {
			fmt.Printf("revision %d: %s (not indexed, skipping digest check)\n", rev.Version, colors.WarningText("WARN"))
			continue
		}

		got := snapstore.Digest(raw)
		if !bytes.Equal(got[:], rec.Digest[:]) {
			fmt.Printf("revision %d: %s (digest mismatch)\n", rev.Version, colors.ErrorText("CORRUPT"))
			bad++
			continue
		}
		fmt.Printf("revision %d: %s\n", rev.Version, colors.SuccessText("OK"))
	}

	if bad > 0 {
		return fmt.Errorf("%d revision(s) failed integrity check", bad)
	}
	return nil
}

func revisionFileName(storeDir string, version int) string {
	return filepath.Join(storeDir, fmt.Sprintf("revision_%d", version))
}
