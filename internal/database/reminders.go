package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/dsemenov/remindd/internal/models"
)

// ReminderRepository handles reminder database operations.
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// timeColumnLayout is how postgres renders a TIME column.
const timeColumnLayout = "15:04:05"

// Insert creates a new reminder and bumps the owner's stored-reminder
// count in the same transaction. The store-assigned id is written back
// into r.
func (r *ReminderRepository) Insert(ctx context.Context, rem *models.Reminder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO reminders (owner_id, due_date, due_time, kind, text, file_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		rem.OwnerID,
		rem.DueDate.String(),
		rem.DueTime.String(),
		rem.Kind,
		rem.Text,
		rem.FileRef,
		now,
	).Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE owners
		SET reminder_count = reminder_count + 1, updated_at = $2
		WHERE id = $1
	`, rem.OwnerID, now)
	if err != nil {
		return fmt.Errorf("failed to bump owner reminder count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminder insert: %w", err)
	}
	return nil
}

// GetByID retrieves a reminder by id.
func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	query := `
		SELECT id, owner_id, due_date, due_time, kind, text, file_ref, created_at
		FROM reminders
		WHERE id = $1
	`
	rem, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reminder not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rem, nil
}

// UpdateText changes a reminder's text/caption.
func (r *ReminderRepository) UpdateText(ctx context.Context, id int64, text string) error {
	return r.updateColumn(ctx, id, `UPDATE reminders SET text = $2 WHERE id = $1`, text)
}

// UpdateDate changes a reminder's due date.
func (r *ReminderRepository) UpdateDate(ctx context.Context, id int64, date models.Date) error {
	return r.updateColumn(ctx, id, `UPDATE reminders SET due_date = $2 WHERE id = $1`, date.String())
}

// UpdateTime changes a reminder's due time.
func (r *ReminderRepository) UpdateTime(ctx context.Context, id int64, t models.ClockTime) error {
	return r.updateColumn(ctx, id, `UPDATE reminders SET due_time = $2 WHERE id = $1`, t.String())
}

func (r *ReminderRepository) updateColumn(ctx context.Context, id int64, query string, value any) error {
	result, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a reminder and decrements its owner's stored count.
func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ownerID int64
	err = tx.QueryRowContext(ctx,
		`DELETE FROM reminders WHERE id = $1 RETURNING owner_id`, id,
	).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("reminder not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE owners
		SET reminder_count = GREATEST(reminder_count - 1, 0), updated_at = $2
		WHERE id = $1
	`, ownerID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement owner reminder count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminder delete: %w", err)
	}
	return nil
}

// DeleteMany removes a delivered batch in one round trip and fixes up the
// affected owners' stored counts. Missing ids are ignored: delivery and an
// explicit user delete may race, and both are allowed to win.
func (r *ReminderRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		WITH doomed AS (
			DELETE FROM reminders WHERE id = ANY($1) RETURNING owner_id
		), per_owner AS (
			SELECT owner_id, COUNT(*) AS n FROM doomed GROUP BY owner_id
		)
		UPDATE owners o
		SET reminder_count = GREATEST(o.reminder_count - per_owner.n, 0), updated_at = $2
		FROM per_owner
		WHERE o.id = per_owner.owner_id
	`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), time.Now()); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	return nil
}

// QueryDue returns all reminders due on the given calendar date, ordered by
// due time ascending.
func (r *ReminderRepository) QueryDue(ctx context.Context, date models.Date) ([]*models.Reminder, error) {
	query := `
		SELECT id, owner_id, due_date, due_time, kind, text, file_ref, created_at
		FROM reminders
		WHERE due_date = $1
		ORDER BY due_time ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// ListByOwner returns every stored reminder for one owner, soonest first.
func (r *ReminderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	query := `
		SELECT id, owner_id, due_date, due_time, kind, text, file_ref, created_at
		FROM reminders
		WHERE owner_id = $1
		ORDER BY due_date ASC, due_time ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// PurgeStale removes reminders whose due instant is strictly before now and
// fixes up owner counts. Returns how many rows were purged.
func (r *ReminderRepository) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	date := models.DateOf(now)
	clock := models.ClockTimeOf(now)

	rows, err := tx.QueryContext(ctx, `
		DELETE FROM reminders
		WHERE due_date < $1 OR (due_date = $1 AND due_time < $2)
		RETURNING owner_id
	`, date.String(), clock.String())
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale reminders: %w", err)
	}

	perOwner := make(map[int64]int)
	var purged int64
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan purged owner: %w", err)
		}
		perOwner[ownerID]++
		purged++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("error iterating purged reminders: %w", err)
	}
	rows.Close()

	for ownerID, n := range perOwner {
		_, err := tx.ExecContext(ctx, `
			UPDATE owners
			SET reminder_count = GREATEST(reminder_count - $2, 0), updated_at = $3
			WHERE id = $1
		`, ownerID, n, now)
		if err != nil {
			return 0, fmt.Errorf("failed to fix owner count after purge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}
	return purged, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReminder reads one reminder row. DATE comes back as time.Time; TIME
// comes back as a "15:04:05" string.
func scanReminder(row rowScanner) (*models.Reminder, error) {
	rem := &models.Reminder{}
	var (
		dueDate time.Time
		dueTime string
		text    sql.NullString
		fileRef sql.NullString
	)

	err := row.Scan(
		&rem.ID,
		&rem.OwnerID,
		&dueDate,
		&dueTime,
		&rem.Kind,
		&text,
		&fileRef,
		&rem.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rem.DueDate = models.DateOf(dueDate)
	parsed, err := time.Parse(timeColumnLayout, dueTime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due_time %q: %w", dueTime, err)
	}
	rem.DueTime = models.ClockTimeOf(parsed)
	rem.Text = text.String
	rem.FileRef = fileRef.String
	return rem, nil
}

func collectReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}
