package task

import (
	"time"

	"catalog/selector/internal/domain"
)

// SubmissionTask carries one accepted submission to the persistence workers.
type SubmissionTask struct {
	SubmissionID string                   `json:"submission_id"`
	SessionID    string                   `json:"session_id"`
	Selection    domain.Selection         `json:"selection"`
	Result       *domain.SubmissionResult `json:"result"`
	SubmittedAt  time.Time                `json:"submitted_at"`
}

func (t *SubmissionTask) TaskType() string {
	return "SubmissionTask"
}

func (t *SubmissionTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
