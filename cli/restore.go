package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/revision"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <version> <output-dir>",
	Short: "Restore a revision to a directory",
	Long:  "Replays the base tree plus every delta up to <version> and materializes the result at <output-dir>.",
	Args:  cobra.ExactArgs(2),
	RunE:  runRestore,
}

var restoreAtomicFlag bool

func init() {
	restoreCmd.Flags().BoolVar(&restoreAtomicFlag, "atomic", true, "Stage the restore and rename into place, so a failure never leaves a partial output directory")
}

func runRestore(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	outputDir := args[1]

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	if restoreAtomicFlag {
		if err := revision.RestoreAtomic(storeDir, version, outputDir); err != nil {
			return fmt.Errorf("restore revision %d: %w", version, err)
		}
	} else {
		if err := revision.Restore(storeDir, version, outputDir); err != nil {
			return fmt.Errorf("restore revision %d: %w", version, err)
		}
	}

	fmt.Printf("restored revision %d to %s\n", version, outputDir)
	return nil
}
