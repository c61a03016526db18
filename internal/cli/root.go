// Package cli implements the docstore command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/heartmarshall/docstore/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// ConfigPath overrides CONFIG_PATH when set.
	ConfigPath string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docstore",
		Short: "docstore - a rule-guarded JSON document server",
		Long: `A schemaless JSON document server with per-collection access rules,
user sessions and a query language for collection reads.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		return config.LoadFrom(o.ConfigPath)
	}
	return config.Load()
}
