package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/colors"
	"github.com/dirstrata/strata/internal/delta"
	"github.com/dirstrata/strata/internal/revision"
	"github.com/dirstrata/strata/internal/tree"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending changes against the base revision",
	Long:  "Computes (without committing) the delta between the current directory and the base tree, the same comparison 'strata snap' would commit.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	base, err := revision.LoadFromFile(storeDir, 0)
	if err != nil {
		return fmt.Errorf("not a strata repository (run 'strata forge' first): %w", err)
	}

	current, err := tree.BuildFromDir(workDir, cfg.Core.CompressFiles)
	if err != nil {
		return fmt.Errorf("scan working directory: %w", err)
	}

	d, err := delta.Compute(base.BaseTree, current)
	if err != nil {
		return fmt.Errorf("compute delta: %w", err)
	}

	if len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Modified) == 0 {
		fmt.Println(colors.SuccessText("working directory matches the base revision, nothing to snap"))
		return nil
	}

	for _, e := range d.Added {
		fmt.Println(colors.ColorizeFileStatus("added", e.Name))
	}
	for _, e := range d.Deleted {
		fmt.Println(colors.ColorizeFileStatus("deleted", e.Name))
	}
	for _, pair := range d.Modified {
		fmt.Println(colors.ColorizeFileStatus("modified", pair.New.Name))
	}
	return nil
}
