package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/config"
	"github.com/benvon/checkauto-admin/internal/services/auth"
	"github.com/spf13/cobra"
)

// loadConfig reads the API configuration. Tests replace it.
var loadConfig = config.Load

func newTestCmd(opts *options) *cobra.Command {
	var (
		jwksURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the identity provider key set",
		Long:  "Download the provider JWKS the API verifies tokens against and list its keys.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jwksURL == "" {
				cfg, err := loadConfig()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				jwksURL = cfg.Auth.JWKSURL
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Testing JWKS endpoint: %s\n", jwksURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cache := auth.NewJWKSCache(jwksURL, auth.JWKSCacheOptions{FetchTimeout: timeout}, cliLogger(opts))
			set, err := cache.Keys(ctx)
			if err != nil {
				return fmt.Errorf("fetch key set: %w", err)
			}
			if set.Len() == 0 {
				return fmt.Errorf("key set at %s is empty", jwksURL)
			}

			for i := 0; i < set.Len(); i++ {
				key, ok := set.Key(i)
				if !ok {
					continue
				}
				fmt.Fprintf(out, "  kid=%s alg=%s kty=%s\n", key.KeyID(), key.Algorithm(), key.KeyType())
			}
			fmt.Fprintf(out, "✓ %d key(s) available\n", set.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "JWKS URL (defaults to AUTH_JWKS_URL or the AUTH0_DOMAIN key set)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}
