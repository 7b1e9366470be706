package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

func newRatelimitCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the per-client rate limit (e.g. 20-S, 100-M). The API picks up changes within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd(opts))
	cmd.AddCommand(newRatelimitSetCmd(opts))
	return cmd
}

func newRatelimitListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts, func(db *database.DB) error {
				s, err := database.NewSettingsRepository(db).RateLimit(cmd.Context())
				if err != nil {
					return fmt.Errorf("get rate limit settings: %w", err)
				}
				out := cmd.OutOrStdout()
				if s == nil {
					fmt.Fprintln(out, "No rate limit configuration in database; RATE_LIMIT_DEFAULT is used.")
					return nil
				}
				fmt.Fprintf(out, "Rate limit: %s (updated %s)\n", s.Rate, s.UpdatedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

func newRatelimitSetCmd(opts *options) *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 20-S, 100-M)")
			}
			// Reject what the API would fail to parse on reload.
			if _, err := limiter.NewRateFromFormatted(rate); err != nil {
				return fmt.Errorf("invalid rate %q: %w", rate, err)
			}
			return withDB(opts, func(db *database.DB) error {
				if err := database.NewSettingsRepository(db).SaveRateLimit(cmd.Context(), &models.RateLimitSettings{Rate: rate}); err != nil {
					return fmt.Errorf("save rate limit settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rate limit configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 20-S, 100-M, 1000-H) (required)")
	return cmd
}
