package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog/selector/internal/domain/task"
)

type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, submission *task.SubmissionTask) error
}

type submissionRepository struct {
	db DB
}

func NewSubmissionRepository(db DB) SubmissionRepository {
	return &submissionRepository{
		db: db,
	}
}

// SaveSubmission upserts by submission id, so a redelivered task is stored once.
func (r *submissionRepository) SaveSubmission(ctx context.Context, submission *task.SubmissionTask) error {
	selection, err := json.Marshal(submission.Selection)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	data, err := json.Marshal(submission.Result)
	if err != nil {
		return fmt.Errorf("failed to encode submission result: %w", err)
	}

	query := `
	INSERT INTO submissions (id, session_id, selection, data, submitted_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id)
	DO UPDATE SET session_id = $2, selection = $3, data = $4, submitted_at = $5`
	_, err = r.db.Exec(ctx, query,
		submission.SubmissionID,
		submission.SessionID,
		selection,
		data,
		submission.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", submission.SubmissionID, err)
	}

	return nil
}
