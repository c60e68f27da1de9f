package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminedu/assess-engine/internal/model"
)

// ErrAlreadyGraded is returned when a grade is applied to a submission
// that already carries one.
var ErrAlreadyGraded = errors.New("submission already graded")

// SubmissionRepository reads persisted written submissions and applies
// grader reviews. Inserts happen in the submission worker.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// GetBySession retrieves a written submission by session ID.
func (r *SubmissionRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.SubmissionRecord, error) {
	sub := &model.SubmissionRecord{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, exam_id, participant_id, participant_name, submitted_at,
		        status, obtained_marks, answers, graded_by, graded_at
		 FROM submissions WHERE session_id = $1`, sessionID,
	).Scan(&sub.SessionID, &sub.ExamID, &sub.ParticipantID, &sub.ParticipantName,
		&sub.SubmittedAt, &sub.Status, &sub.ObtainedMarks, &answers, &sub.GradedBy, &sub.GradedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return sub, nil
}

// ListPending retrieves submissions awaiting review for an exam, oldest first.
func (r *SubmissionRepository) ListPending(ctx context.Context, examID uuid.UUID) ([]model.SubmissionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, exam_id, participant_id, participant_name, submitted_at, status, obtained_marks
		 FROM submissions WHERE exam_id = $1 AND status = $2 ORDER BY submitted_at ASC`,
		examID, model.SubmissionPendingReview)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.SubmissionRecord
	for rows.Next() {
		var sub model.SubmissionRecord
		if err := rows.Scan(&sub.SessionID, &sub.ExamID, &sub.ParticipantID, &sub.ParticipantName,
			&sub.SubmittedAt, &sub.Status, &sub.ObtainedMarks); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ApplyGrade records a grader's marks and per-question feedback and flips
// the submission to GRADED. It fails if the submission was graded already.
func (r *SubmissionRepository) ApplyGrade(ctx context.Context, sessionID uuid.UUID, graderID int, obtainedMarks float64, feedback []model.QuestionFeedbackUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status model.SubmissionStatus
	var answers []byte
	err = tx.QueryRow(ctx,
		`SELECT status, answers FROM submissions WHERE session_id = $1 FOR UPDATE`, sessionID,
	).Scan(&status, &answers)
	if err != nil {
		return err
	}
	if status == model.SubmissionGraded {
		return ErrAlreadyGraded
	}

	var parsed []model.QuestionEvidence
	if err := json.Unmarshal(answers, &parsed); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	byQuestion := make(map[uuid.UUID]*model.QuestionEvidence, len(parsed))
	for i := range parsed {
		byQuestion[parsed[i].QuestionID] = &parsed[i]
	}
	for _, fb := range feedback {
		entry, ok := byQuestion[fb.QuestionID]
		if !ok {
			return pgx.ErrNoRows
		}
		note := fb.Feedback
		entry.Feedback = &note
	}
	updated, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE submissions
		 SET status = $1, obtained_marks = $2, answers = $3, graded_by = $4, graded_at = $5
		 WHERE session_id = $6`,
		model.SubmissionGraded, obtainedMarks, updated, graderID, time.Now(), sessionID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
