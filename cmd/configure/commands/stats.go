package commands

import (
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *options) *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if window <= 0 {
				return fmt.Errorf("--window must be positive")
			}
			return withDB(opts, func(db *database.DB) error {
				s, err := database.NewStatsRepository(db).Dashboard(cmd.Context(), time.Now().Add(-window))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Users:                %d\n", s.TotalUsers)
				fmt.Fprintf(out, "Listings:             %d (%d active)\n", s.TotalListings, s.ActiveListings)
				fmt.Fprintf(out, "Vehicles:             %d\n", s.TotalVehicles)
				fmt.Fprintf(out, "Unread notifications: %d\n", s.UnreadNotifications)
				fmt.Fprintf(out, "Plate searches (%s): %d\n", window, s.PlateSearches24h)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "Plate search window")
	return cmd
}
