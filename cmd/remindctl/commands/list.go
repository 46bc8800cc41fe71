package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dsemenov/remindd/internal/config"
	"github.com/dsemenov/remindd/internal/database"
	"github.com/dsemenov/remindd/internal/models"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var ownerID int64
	var due string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reminders",
		Long:  "List pending reminders for an owner, or every reminder due on a given day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID == 0 && due == "" {
				return fmt.Errorf("either --owner or --due is required")
			}

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

			repo := database.NewReminderRepository(db)
			ctx := context.Background()

			var reminders []*models.Reminder
			if due != "" {
				date, err := models.ParseDate(due)
				if err != nil {
					return fmt.Errorf("invalid --due value: %w", err)
				}
				reminders, err = repo.QueryDue(ctx, date)
				if err != nil {
					return fmt.Errorf("failed to query due reminders: %w", err)
				}
			} else {
				reminders, err = repo.ListByOwner(ctx, ownerID)
				if err != nil {
					return fmt.Errorf("failed to list reminders: %w", err)
				}
			}

			if len(reminders) == 0 {
				fmt.Println("No reminders found")
				return nil
			}

			fmt.Printf("%d reminder(s):\n", len(reminders))
			for _, rem := range reminders {
				fmt.Printf("  - ID: %d\n", rem.ID)
				fmt.Printf("    Owner: %d\n", rem.OwnerID)
				fmt.Printf("    Due: %s %s\n", rem.DueDate, rem.DueTime)
				fmt.Printf("    Kind: %s\n", rem.Kind)
				if rem.Text != "" {
					fmt.Printf("    Text: %s\n", rem.Text)
				}
				if rem.FileRef != "" {
					fmt.Printf("    File: %s\n", rem.FileRef)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Owner ID to list reminders for")
	cmd.Flags().StringVar(&due, "due", "", "List all reminders due on this day (YYYY-MM-DD)")

	return cmd
}
