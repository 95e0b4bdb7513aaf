package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/revision"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Commit a new revision",
	Long:  "Computes the delta between the current directory and the base tree, and commits it as the next revision.",
	RunE:  runSnap,
}

func runSnap(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("snap takes 0 arguments, %d were given", len(args))
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	if _, err := os.Stat(storeDir); err != nil {
		return fmt.Errorf("not a strata repository (run 'strata forge' first): %w", err)
	}

	base, err := revision.LoadFromFile(storeDir, 0)
	if err != nil {
		return fmt.Errorf("load base revision: %w", err)
	}

	rev, err := revision.CreateDelta(storeDir, base, workDir, cfg.Core.CompressFiles)
	if err != nil {
		return fmt.Errorf("compute delta: %w", err)
	}

	if err := saveRevisionAtomic(storeDir, rev); err != nil {
		return fmt.Errorf("save revision %d: %w", rev.Version, err)
	}
	if err := indexRevision(storeDir, rev, workDir); err != nil {
		log.Printf("warning: failed to index revision %d: %v", rev.Version, err)
	}

	added, deleted, modified := 0, 0, 0
	if rev.Delta != nil {
		added, deleted, modified = len(rev.Delta.Added), len(rev.Delta.Deleted), len(rev.Delta.Modified)
	}
	fmt.Printf("committed revision %d (base %d): %d added, %d deleted, %d modified\n",
		rev.Version, rev.BaseVersion, added, deleted, modified)
	return nil
}
