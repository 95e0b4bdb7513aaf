package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/delta"
	"github.com/dirstrata/strata/internal/revision"
	"github.com/dirstrata/strata/internal/tree"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <version>",
	Short: "Print a revision's tree structure",
	Long:  "Replays the base tree plus every delta up to <version> and pretty-prints the resulting tree, depth-indented, without writing to disk.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
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

	base, err := revision.LoadFromFile(storeDir, 0)
	if err != nil {
		return fmt.Errorf("load base revision: %w", err)
	}
	if base.BaseTree == nil {
		return fmt.Errorf("revision_0 has no base tree payload")
	}

	working, err := base.BaseTree.Clone()
	if err != nil {
		return fmt.Errorf("clone base tree: %w", err)
	}

	for v := 1; v <= version; v++ {
		rev, err := revision.LoadFromFile(storeDir, v)
		if err != nil {
			return fmt.Errorf("load revision %d: %w", v, err)
		}
		if rev.Delta == nil {
			return fmt.Errorf("revision %d has no delta payload", v)
		}
		if err := delta.Apply(working, rev.Delta); err != nil {
			return fmt.Errorf("apply delta %d: %w", v, err)
		}
	}

	return tree.Print(os.Stdout, working)
}
