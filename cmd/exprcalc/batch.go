package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/exprcalc/pkg/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.yaml>",
	Short: "Evaluate a YAML document of named expressions",
	Long: `batch evaluates every entry of a YAML document and writes the outcomes
as YAML. Use "-" to read the document from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("workers", 0, "Entries evaluated concurrently (default GOMAXPROCS)")
	batchCmd.Flags().Bool("fail-fast", false, "Exit with an error when any entry failed")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.ExprOptions()
	if err != nil {
		return err
	}

	var source []byte
	if args[0] == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
	} else {
		source, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading batch document: %w", err)
	}

	doc, err := batch.Parse(source)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	report, err := batch.Run(cmd.Context(), doc, workers, opts...)
	if err != nil {
		return err
	}
	if err := batch.Write(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if failFast, _ := cmd.Flags().GetBool("fail-fast"); failFast && report.Failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", report.Failed, len(report.Outcomes))
	}
	return nil
}
