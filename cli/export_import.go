package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/bundle"
)

var exportCmd = &cobra.Command{
	Use:   "export <bundle-path>",
	Short: "Bundle the revision store into one file",
	Long:  "Packs every revision file into a single zstd-compressed archive, for local backup or transfer.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <bundle-path>",
	Short: "Unpack a bundle into a new revision store",
	Long:  "Restores every revision file from a bundle created by 'strata export' into the current directory's store.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	if err := bundle.Export(storeDir, args[0]); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("exported %s to %s\n", storeDir, args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := strataConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	if err := bundle.Import(args[0], storeDir); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("imported %s into %s\n", args[0], storeDir)
	return nil
}
