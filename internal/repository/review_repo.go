package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sarcasm-review/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// ReviewRepository stores analysis runs, their exported review records and
// imported human verdicts.
type ReviewRepository interface {
	CreateRun(ctx context.Context, run *models.Run) error
	UpdateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	SaveRecords(ctx context.Context, records []models.ReviewRecord) error
	GetRecords(ctx context.Context, runID string) ([]models.ReviewRecord, error)
	ReplaceVerdicts(ctx context.Context, runID string, verdicts []models.Verdict) error
	GetVerdicts(ctx context.Context, runID string) ([]models.Verdict, error)
	TierStats(ctx context.Context, runID string) ([]models.TierStats, error)
	Close() error
}

type reviewRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewReviewRepository creates a repository over an open, migrated database.
func NewReviewRepository(db *sqlx.DB, logger *zap.Logger) ReviewRepository {
	return &reviewRepository{db: db, logger: logger}
}

// CreateRun inserts a new run.
func (r *reviewRepository) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (
			id, profile, status, input_path, output_path, tier,
			total_messages, emoji_messages, strict_count, tone_count, exported_count,
			started_at, completed_at, error_message
		) VALUES (
			:id, :profile, :status, :input_path, :output_path, :tier,
			:total_messages, :emoji_messages, :strict_count, :tone_count, :exported_count,
			:started_at, :completed_at, :error_message
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRun stores the run's status, counts and completion time.
func (r *reviewRepository) UpdateRun(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs
		SET status = :status, output_path = :output_path, tier = :tier,
		    total_messages = :total_messages, emoji_messages = :emoji_messages,
		    strict_count = :strict_count, tone_count = :tone_count,
		    exported_count = :exported_count, completed_at = :completed_at,
		    error_message = :error_message
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

const runColumns = `
	id, profile, status, input_path, output_path, tier,
	total_messages, emoji_messages, strict_count, tone_count, exported_count,
	started_at, completed_at, error_message`

// GetRun retrieves a run by ID.
func (r *reviewRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM runs WHERE id = ?`)

	run := &models.Run{}
	err := r.db.GetContext(ctx, run, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (r *reviewRepository) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	runs := []models.Run{}
	if err := r.db.SelectContext(ctx, &runs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// SaveRecords inserts records in a single transaction.
func (r *reviewRepository) SaveRecords(ctx context.Context, records []models.ReviewRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := `
		INSERT INTO review_records (
			id, run_id, position, message_index, text, has_emoji, sent_at, sent_at_utc,
			strict_mismatch, tone_contradiction, broader_sarcasm, detection_type
		) VALUES (
			:id, :run_id, :position, :message_index, :text, :has_emoji, :sent_at, :sent_at_utc,
			:strict_mismatch, :tone_contradiction, :broader_sarcasm, :detection_type
		)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range records {
		if _, err := tx.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("failed to save record %d: %w", records[i].Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	r.logger.Debug("Review records saved", zap.Int("count", len(records)))
	return nil
}

// GetRecords returns a run's records in export order.
func (r *reviewRepository) GetRecords(ctx context.Context, runID string) ([]models.ReviewRecord, error) {
	query := r.db.Rebind(`
		SELECT id, run_id, position, message_index, text, has_emoji, sent_at, sent_at_utc,
		       strict_mismatch, tone_contradiction, broader_sarcasm, detection_type
		FROM review_records
		WHERE run_id = ?
		ORDER BY position
	`)

	records := []models.ReviewRecord{}
	if err := r.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// ReplaceVerdicts swaps every verdict of a run's records for verdicts in one
// transaction. Records missing from verdicts end up with no verdict.
func (r *reviewRepository) ReplaceVerdicts(ctx context.Context, runID string, verdicts []models.Verdict) error {
	deleteQuery := r.db.Rebind(`
		DELETE FROM verdicts
		WHERE record_id IN (SELECT id FROM review_records WHERE run_id = ?)
	`)
	insertQuery := `
		INSERT INTO verdicts (record_id, is_real_sarcasm, confidence_level, notes, reviewer, imported_at)
		VALUES (:record_id, :is_real_sarcasm, :confidence_level, :notes, :reviewer, :imported_at)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteQuery, runID)
	if err != nil {
		return fmt.Errorf("failed to clear verdicts: %w", err)
	}
	for i := range verdicts {
		if _, err := tx.NamedExecContext(ctx, insertQuery, &verdicts[i]); err != nil {
			return fmt.Errorf("failed to save verdict for %s: %w", verdicts[i].RecordID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verdicts: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.logger.Debug("Replaced earlier verdicts", zap.String("run_id", runID), zap.Int64("removed", n))
	}
	return nil
}

// GetVerdicts returns the verdicts imported for a run's records.
func (r *reviewRepository) GetVerdicts(ctx context.Context, runID string) ([]models.Verdict, error) {
	query := r.db.Rebind(`
		SELECT v.record_id, v.is_real_sarcasm, v.confidence_level, v.notes, v.reviewer, v.imported_at
		FROM verdicts v
		JOIN review_records rr ON rr.id = v.record_id
		WHERE rr.run_id = ?
		ORDER BY rr.position
	`)

	verdicts := []models.Verdict{}
	if err := r.db.SelectContext(ctx, &verdicts, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	return verdicts, nil
}

// TierStats aggregates exported and reviewed counts per detection type,
// for one run or, with an empty runID, for every run.
func (r *reviewRepository) TierStats(ctx context.Context, runID string) ([]models.TierStats, error) {
	query := `
		SELECT rr.detection_type AS detection_type,
		       COUNT(*) AS exported,
		       SUM(CASE WHEN v.is_real_sarcasm IS NOT NULL THEN 1 ELSE 0 END) AS reviewed,
		       SUM(CASE WHEN v.is_real_sarcasm THEN 1 ELSE 0 END) AS confirmed
		FROM review_records rr
		LEFT JOIN verdicts v ON v.record_id = rr.id
	`
	args := []any{}
	if runID != "" {
		query += ` WHERE rr.run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY rr.detection_type ORDER BY rr.detection_type`

	stats := []models.TierStats{}
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query tier stats: %w", err)
	}
	for i := range stats {
		if stats[i].Reviewed > 0 {
			stats[i].Precision = float64(stats[i].Confirmed) / float64(stats[i].Reviewed)
		}
	}
	return stats, nil
}

// Close closes the database connection
func (r *reviewRepository) Close() error {
	return r.db.Close()
}
