package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-client/internal/app"

	"github.com/jackc/pgx/v4/pgxpool"
)

// SubmissionLog stores wizard submission reports in the wizard_submissions table.
type SubmissionLog struct {
	pool *pgxpool.Pool
}

func NewSubmissionLog(pool *pgxpool.Pool) *SubmissionLog {
	return &SubmissionLog{pool: pool}
}

func (l *SubmissionLog) Record(ctx context.Context, record app.SubmissionRecord) error {
	report, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var quizID *int64
	if record.Report.QuizID != 0 {
		quizID = &record.Report.QuizID
	}
	var failure *string
	if record.Report.Failure != "" {
		failure = &record.Report.Failure
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO wizard_submissions (title, quiz_id, complete, failure, report, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.Title, quizID, record.Report.Complete, failure, report, record.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Recent returns up to limit submissions, newest first.
func (l *SubmissionLog) Recent(ctx context.Context, limit int) ([]app.SubmissionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, title, report, submitted_at FROM wizard_submissions
		 ORDER BY submitted_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []app.SubmissionRecord
	for rows.Next() {
		var (
			record app.SubmissionRecord
			raw    []byte
		)
		if err := rows.Scan(&record.ID, &record.Title, &raw, &record.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(raw, &record.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
