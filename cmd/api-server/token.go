package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"procurelink/internal/auth"
)

// tokenCmd mints a bearer token signed with JWT_SECRET, for local testing
// without the identity provider.
func tokenCmd() *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			id := uuid.New()
			if subject != "" {
				if id, err = uuid.Parse(subject); err != nil {
					return fmt.Errorf("--subject: %w", err)
				}
			}
			tok, err := auth.Issue(cfg.JWTSecret, id, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subject: %s\ntoken: %s\n", id, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "profile id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
