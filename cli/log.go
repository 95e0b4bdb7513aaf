package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/colors"
	"github.com/dirstrata/strata/internal/revision"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List revisions",
	Long:  "Lists every revision in the store, in version order, validating that the delta chain is unbroken.",
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("list revisions: %w", err)
	}
	if len(revisions) == 0 {
		fmt.Println(colors.Gray("no revisions yet (run 'strata forge' first)"))
		return nil
	}

	for _, rev := range revisions {
		if rev.BaseVersion == -1 {
			fmt.Printf("%s  %s  %s\n", colors.Bold(fmt.Sprintf("revision %d", rev.Version)), colors.Gray("(base)"), colors.InfoText(hashHex(rev.Hash)))
			continue
		}
		added, deleted, modified := 0, 0, 0
		if rev.Delta != nil {
			added, deleted, modified = len(rev.Delta.Added), len(rev.Delta.Deleted), len(rev.Delta.Modified)
		}
		fmt.Printf("%s  %s  %s  %s %s %s\n",
			colors.Bold(fmt.Sprintf("revision %d", rev.Version)),
			colors.Gray(fmt.Sprintf("(base %d)", rev.BaseVersion)),
			colors.InfoText(hashHex(rev.Hash)),
			colors.Added(fmt.Sprintf("+%d", added)),
			colors.Deleted(fmt.Sprintf("-%d", deleted)),
			colors.Modified(fmt.Sprintf("~%d", modified)),
		)
	}
	return nil
}

func hashHex(h revision.Hash) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(h)*2)
	for i, b := range h {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}
