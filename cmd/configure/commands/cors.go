package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/spf13/cobra"
)

func newCorsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options. The API picks up changes within a minute.",
	}
	cmd.AddCommand(newCorsListCmd(opts))
	cmd.AddCommand(newCorsSetCmd(opts))
	return cmd
}

func newCorsListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts, func(db *database.DB) error {
				s, err := database.NewSettingsRepository(db).CORS(cmd.Context())
				if err != nil {
					return fmt.Errorf("get cors settings: %w", err)
				}
				out := cmd.OutOrStdout()
				if s == nil {
					fmt.Fprintln(out, "No CORS configuration in database; FRONTEND_URL is used. Use 'cors set' to add one.")
					return nil
				}
				fmt.Fprintln(out, "CORS configuration:")
				fmt.Fprintf(out, "  Allowed origins: %s\n", strings.Join(s.AllowedOrigins, ", "))
				fmt.Fprintf(out, "  Allow credentials: %v\n", s.AllowCredentials)
				fmt.Fprintf(out, "  Max-Age: %d\n", s.MaxAge)
				return nil
			})
		},
	}
}

func newCorsSetCmd(opts *options) *cobra.Command {
	var (
		origins    string
		allowCreds bool
		maxAge     int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := database.SplitOrigins(origins)
			if len(list) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			return withDB(opts, func(db *database.DB) error {
				s := &models.CORSSettings{
					AllowedOrigins:   list,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewSettingsRepository(db).SaveCORS(cmd.Context(), s); err != nil {
					return fmt.Errorf("save cors settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
