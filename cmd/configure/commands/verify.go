package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/checkauto-admin/internal/services/auth"
	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *options) *cobra.Command {
	var (
		token   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a token the way the API does",
		Long:  "Check a bearer token against the configured issuer, audience and key set and print its claims.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if t, ok := auth.BearerToken(token); ok {
				token = t
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("--token is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cache := auth.NewJWKSCache(cfg.Auth.JWKSURL, auth.JWKSCacheOptions{
				TTL:                cfg.Auth.JWKSCacheTTL,
				MinRefreshInterval: cfg.Auth.JWKSMinRefreshInterval,
			}, cliLogger(opts))
			verifier := auth.NewVerifier(cache, auth.VerifierConfig{
				Issuer:            cfg.Auth.Issuer(),
				Audience:          cfg.Auth.Audience,
				VerifyAudience:    cfg.Auth.VerifyAudience,
				AllowedAlgorithms: cfg.Auth.AllowedAlgorithms,
				ClockSkew:         cfg.Auth.ClockSkew,
			})

			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				return fmt.Errorf("token rejected: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Bearer token to verify (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Key set fetch timeout")

	return cmd
}
