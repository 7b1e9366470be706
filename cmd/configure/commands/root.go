package commands

import (
	"fmt"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openDatabase connects to PostgreSQL. Tests replace it with a sqlmock-backed DB.
var openDatabase = database.New

// options holds the persistent flags shared by every subcommand.
type options struct {
	databaseURL string
	verbose     bool
}

// NewRootCmd creates the checkauto-configure command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "checkauto-configure",
		Short:         "Configuration tool for the checkAuto admin API",
		Long:          "Manage runtime settings, staff access and identity provider checks for the checkAuto admin API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL DSN (defaults to DATABASE_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newCorsCmd(opts))
	cmd.AddCommand(newRatelimitCmd(opts))
	cmd.AddCommand(newUserCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newTestCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))

	return cmd
}

// withDB runs fn with an open database and closes it afterwards.
func withDB(opts *options, fn func(db *database.DB) error) error {
	url := opts.databaseURL
	if url == "" {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		url = cfg.DatabaseURL
	}

	db, err := openDatabase(url)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(db)
}

// cliLogger returns a console logger; failures fall back to a no-op logger.
func cliLogger(opts *options) *zap.Logger {
	l, err := logger.NewCLILogger(opts.verbose)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts, func(db *database.DB) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
				return nil
			})
		},
	}
}
