package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/spf13/cobra"
)

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and manage provisioned users",
		Long:  "Users are created on their first authenticated request; these commands change their access flags.",
	}
	cmd.AddCommand(newUserShowCmd(opts))
	cmd.AddCommand(newUserFlagCmd(opts, "grant-staff", "Grant access to the admin dashboard",
		func(ctx context.Context, r *database.UserRepository, username string) error { return r.SetStaff(ctx, username, true) }))
	cmd.AddCommand(newUserFlagCmd(opts, "revoke-staff", "Revoke access to the admin dashboard",
		func(ctx context.Context, r *database.UserRepository, username string) error { return r.SetStaff(ctx, username, false) }))
	cmd.AddCommand(newUserFlagCmd(opts, "activate", "Allow the user to authenticate",
		func(ctx context.Context, r *database.UserRepository, username string) error { return r.SetActive(ctx, username, true) }))
	cmd.AddCommand(newUserFlagCmd(opts, "deactivate", "Reject the user's tokens",
		func(ctx context.Context, r *database.UserRepository, username string) error { return r.SetActive(ctx, username, false) }))
	return cmd
}

func newUserShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user by provider subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts, func(db *database.DB) error {
				u, err := database.NewUserRepository(db).GetByUsername(cmd.Context(), args[0])
				if errors.Is(err, database.ErrUserNotFound) {
					return fmt.Errorf("no user with username %q", args[0])
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:          %s\n", u.ID)
				fmt.Fprintf(out, "Username:    %s\n", u.Username)
				fmt.Fprintf(out, "Email:       %s\n", u.Email)
				fmt.Fprintf(out, "Name:        %s %s\n", u.FirstName, u.LastName)
				fmt.Fprintf(out, "Active:      %v\n", u.IsActive)
				fmt.Fprintf(out, "Staff:       %v\n", u.IsStaff)
				fmt.Fprintf(out, "Date joined: %s\n", u.DateJoined.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

type userUpdate func(ctx context.Context, r *database.UserRepository, username string) error

func newUserFlagCmd(opts *options, use, short string, update userUpdate) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts, func(db *database.DB) error {
				err := update(cmd.Context(), database.NewUserRepository(db), args[0])
				if errors.Is(err, database.ErrUserNotFound) {
					return fmt.Errorf("no user with username %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s updated (%s).\n", args[0], use)
				return nil
			})
		},
	}
}
