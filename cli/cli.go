package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

const StrataVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "strata is a directory snapshot engine",
	Long:  `strata takes content-addressed snapshots of a directory tree and restores any of them later, without branching or remote transport.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("strata version %s\n", StrataVersion)
			os.Exit(0)
		}
		cmd.Help()
	},
}

var initialCmd = &cobra.Command{
	Use:   "forge",
	Short: "Initialize",
	Long:  "Initializes a new strata-managed revision store for the current directory",
	Run:   forgeCommand,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var version bool

func init() {
	rootCmd.Flags().BoolVar(&version, "version", false, "Print the strata version")
	rootCmd.AddCommand(initialCmd)
	rootCmd.AddCommand(snapCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
}

func forgeCommand(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		log.Fatalf("forge takes 0 arguments, %d were given", len(args))
	}

	workDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("get working directory: %v", err)
	}

	cfg, err := strataConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	storeDir := storeDirPath(workDir, cfg)

	if err := os.Mkdir(storeDir, 0o755); err != nil {
		if !os.IsExist(err) {
			log.Fatalf("create store directory: %v", err)
		}
		log.Fatalf("%s already exists; this directory is already forged", storeDir)
	}

	log.Println("creating base revision (version 0)...")
	base, err := createBaseRevision(workDir, cfg.Core.CompressFiles)
	if err != nil {
		log.Fatalf("create base revision: %v", err)
	}
	if err := saveRevisionAtomic(storeDir, base); err != nil {
		log.Fatalf("save base revision: %v", err)
	}

	if err := indexRevision(storeDir, base, workDir); err != nil {
		log.Printf("warning: failed to index revision 0: %v", err)
	}

	log.Printf("strata repository initialized at %s (base revision committed)", storeDir)
}
