package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dsemenov/remindd/internal/config"
	"github.com/dsemenov/remindd/internal/database"
)

// NewPurgeCmd creates the purge command
func NewPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete reminders whose instant has already passed",
		Long:  "Delete stale reminder rows the same way the nightly resynchronization does, using the service timezone",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			loc, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("failed to load timezone: %w", err)
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

			repo := database.NewReminderRepository(db)
			purged, err := repo.PurgeStale(context.Background(), time.Now().In(loc))
			if err != nil {
				return fmt.Errorf("failed to purge stale reminders: %w", err)
			}

			fmt.Printf("Purged %d stale reminder(s)\n", purged)
			return nil
		},
	}

	return cmd
}
