package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dccc/clubhouse/internal/auth"
)

// tokenCmd mints a bearer token for local testing with the jwt provider
func (c *cli) tokenCmd() *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token (jwt auth provider only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.Provider != "jwt" {
				return fmt.Errorf("tokens can only be issued for the jwt provider, not %q", c.cfg.Auth.Provider)
			}
			token, err := auth.NewJWTVerifier(c.cfg.Auth.JWTSecret).Sign(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UID, "uid", "", "member id")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().BoolVar(&id.EmailVerified, "verified", true, "mark the email as verified")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
