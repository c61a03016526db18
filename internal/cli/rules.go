package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/docstore/internal/rules"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect access rule files",
	}
	cmd.AddCommand(newRulesCheckCommand())
	return cmd
}

func newRulesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse a rules file and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			collections := rs.Collections()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d collections", args[0], len(collections))
			if len(collections) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ": %s", strings.Join(collections, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}
}
