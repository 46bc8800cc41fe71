package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dsemenov/remindd/internal/config"
	"github.com/dsemenov/remindd/internal/services/token"
)

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	var ownerID int64
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service token",
		Long:  "Mint a service token signed with the shared secret, for testing the API by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			signed, err := token.Mint(cfg.AuthSecret, subject, ownerID, ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			fmt.Println(signed)
			return nil
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Owner ID the token acts for")
	cmd.Flags().StringVar(&subject, "subject", "remindctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
