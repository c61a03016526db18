package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/docstore/internal/adapter/postgres"
	"github.com/heartmarshall/docstore/internal/adapter/postgres/seedrepo"
	"github.com/heartmarshall/docstore/internal/app"
	"github.com/heartmarshall/docstore/internal/auth"
	"github.com/heartmarshall/docstore/internal/seed"
)

var errNoDatabase = errors.New("no database configured (set database.dsn or DATABASE_DSN)")

// NewSeedCommand creates the seed command group.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Move seed data between files and the database",
	}

	cmd.AddCommand(newSeedImportCommand(rootOpts))
	cmd.AddCommand(newSeedExportCommand(rootOpts))

	return cmd
}

func newSeedImportCommand(rootOpts *RootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a seed file into the database",
		Long: `Import a YAML or JSON seed file into the database seed tables.

Plaintext user passwords are hashed before they are written. Existing
records with the same ids are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errNoDatabase
			}
			logger := app.NewLogger(cfg.Log)
			ctx := cmd.Context()

			data, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := data.HashPasswords(auth.NewPasswordHasher(cfg.Auth.PasswordHashCost), cfg.Store.UsersCollection); err != nil {
				return err
			}

			pool, err := postgres.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}

			repo := seedrepo.New(pool, postgres.NewTxManager(pool))
			importFn := repo.Import
			if reset {
				importFn = repo.Replace
			}
			n, err := importFn(ctx, data)
			if err != nil {
				return err
			}

			logger.Info("seed imported", slog.String("file", args[0]), slog.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows from %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "clear", false, "replace existing seed data in the same transaction")
	return cmd
}

func newSeedExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the effective seed to a file",
		Long: `Write the seed the server would start with (the configured seed file
merged with the database seed) to a file. The format follows the file
extension: .json for JSON, anything else for YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var pool *pgxpool.Pool
			if cfg.Database.Enabled() {
				if pool, err = postgres.NewPool(ctx, cfg.Database); err != nil {
					return err
				}
				defer pool.Close()
			}

			data, err := app.LoadSeed(ctx, cfg, pool, auth.NewPasswordHasher(cfg.Auth.PasswordHashCost))
			if err != nil {
				return err
			}

			if err := seed.WriteFile(args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", data.Count(), args[0])
			return nil
		},
	}
}
