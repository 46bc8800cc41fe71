package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dsemenov/remindd/internal/config"
	"github.com/dsemenov/remindd/internal/database"
)

// NewPremiumCmd creates the premium command with show, grant and revoke subcommands
func NewPremiumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Manage owner premium status",
		Long:  "Show, grant or revoke the premium flag that lifts the reminder cap and unlocks media reminders",
	}
	cmd.AddCommand(newPremiumShowCmd())
	cmd.AddCommand(newPremiumSetCmd("grant", true))
	cmd.AddCommand(newPremiumSetCmd("revoke", false))
	return cmd
}

func withOwnerRepo(fn func(ctx context.Context, repo *database.OwnerRepository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	return fn(context.Background(), database.NewOwnerRepository(db))
}

func newPremiumShowCmd() *cobra.Command {
	var ownerID int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an owner's premium status and reminder count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwnerRepo(func(ctx context.Context, repo *database.OwnerRepository) error {
				owner, err := repo.GetByID(ctx, ownerID)
				if err != nil {
					return fmt.Errorf("failed to load owner: %w", err)
				}
				fmt.Printf("Owner %d:\n", owner.ID)
				fmt.Printf("  Premium: %v\n", owner.Premium)
				fmt.Printf("  Reminders: %d\n", owner.ReminderCount)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Owner ID")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newPremiumSetCmd(use string, premium bool) *cobra.Command {
	var ownerID int64
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s premium for an owner", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwnerRepo(func(ctx context.Context, repo *database.OwnerRepository) error {
				if _, err := repo.GetOrCreate(ctx, ownerID); err != nil {
					return fmt.Errorf("failed to load owner: %w", err)
				}
				if err := repo.SetPremium(ctx, ownerID, premium); err != nil {
					return fmt.Errorf("failed to update owner: %w", err)
				}
				fmt.Printf("Owner %d premium set to %v\n", ownerID, premium)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Owner ID")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
