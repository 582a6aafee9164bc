package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the numeric type names accepted by --as and --literal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range types.Names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
