package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminedu/assess-engine/internal/model"
)

// ResultRepository reads persisted score results. Writes happen in the
// result worker, which consumes the Redis persistence queue.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetBySession retrieves a score result by session ID.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ScoreResult, error) {
	res := &model.ScoreResult{}
	var review []byte
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, exam_id, participant_id, correct_count, wrong_count, skipped_count,
		        raw_obtained, negative_deduction, final_score, total_marks, status_tier, finished_at, review
		 FROM score_results WHERE session_id = $1`, sessionID,
	).Scan(&res.SessionID, &res.ExamID, &res.ParticipantID, &res.CorrectCount, &res.WrongCount,
		&res.SkippedCount, &res.RawObtained, &res.NegativeDeduction, &res.FinalScore,
		&res.TotalMarks, &res.StatusTier, &res.FinishedAt, &review)
	if err != nil {
		return nil, err
	}
	if len(review) > 0 {
		if err := json.Unmarshal(review, &res.Review); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
	}
	return res, nil
}

// ListByParticipant retrieves a participant's results, newest first.
func (r *ResultRepository) ListByParticipant(ctx context.Context, participantID int) ([]model.ScoreResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, exam_id, participant_id, correct_count, wrong_count, skipped_count,
		        raw_obtained, negative_deduction, final_score, total_marks, status_tier, finished_at
		 FROM score_results WHERE participant_id = $1 ORDER BY finished_at DESC`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ScoreResult
	for rows.Next() {
		var res model.ScoreResult
		if err := rows.Scan(&res.SessionID, &res.ExamID, &res.ParticipantID, &res.CorrectCount,
			&res.WrongCount, &res.SkippedCount, &res.RawObtained, &res.NegativeDeduction,
			&res.FinalScore, &res.TotalMarks, &res.StatusTier, &res.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
