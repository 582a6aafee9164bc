// Package main is the entry point for the exprcalc command.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/exprcalc/pkg/config"
	"github.com/lemonberrylabs/exprcalc/pkg/expr"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "exprcalc [expression...]",
	Short: "Evaluate arithmetic, bitwise and comparison expressions",
	Long: `exprcalc evaluates expressions such as "(2 * 2 + 4822) / 4" and prints
each result with its numeric type. Separate expressions with ';'.

With no arguments it starts an interactive prompt, or reads one input per
line when stdin is not a terminal.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEval,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("exprcalc version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "YAML config file (env and flags override it)")
	rootCmd.PersistentFlags().String("as", "", "Convert every result to this type (env EXPRCALC_RESULT_TYPE)")
	rootCmd.PersistentFlags().String("literal", "", "Type of numeric literals (default f64, env EXPRCALC_LITERAL_TYPE)")
	rootCmd.PersistentFlags().Int("max-length", expr.MaxExpressionLength, "Maximum input length in bytes, 0 for no limit (env EXPRCALC_MAX_LENGTH)")
	rootCmd.Flags().Bool("postfix", false, "Print the postfix form of each expression before its result")

	rootCmd.AddCommand(serveCmd, batchCmd, typesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies the persistent evaluation flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("as"); v != "" {
		cfg.ResultType = v
	}
	if v, _ := cmd.Flags().GetString("literal"); v != "" {
		cfg.LiteralType = v
	}
	if cmd.Flags().Changed("max-length") {
		cfg.MaxExpressionLength, _ = cmd.Flags().GetInt("max-length")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.ExprOptions()
	if err != nil {
		return err
	}
	postfix, _ := cmd.Flags().GetBool("postfix")

	if len(args) > 0 {
		return printResults(cmd.OutOrStdout(), strings.Join(args, " "), "", postfix, opts)
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return runREPL(opts, cfg.MaxExpressionLength)
	}
	return lineLoop(in, cmd.OutOrStdout(), cmd.ErrOrStderr(), postfix, opts)
}

// printResults evaluates input and writes one line per non-empty result.
func printResults(w io.Writer, input, prefix string, postfix bool, opts []expr.Option) error {
	results, err := expr.Eval(input, opts...)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Ok {
			continue
		}
		if postfix {
			fmt.Fprintf(w, "%s%s\n", prefix, r.Expression)
		}
		fmt.Fprintf(w, "%s%s\n", prefix, r)
	}
	return nil
}

// lineLoop evaluates each line of r. Errors are reported and the loop goes on.
func lineLoop(r io.Reader, out, errOut io.Writer, postfix bool, opts []expr.Option) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := printResults(out, line, "=> ", postfix, opts); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
