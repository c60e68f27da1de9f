package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminedu/assess-engine/internal/model"
)

// ExamRepository loads exam definitions. Definitions are read-only inputs
// to the session engine; nothing here mutates them during an attempt.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves a full exam definition with its questions in
// presentation order.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	def := &model.ExamDefinition{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, format, duration_minutes, total_marks, negative_marks_per_wrong
		 FROM exams WHERE id = $1`, id,
	).Scan(&def.ID, &def.Title, &def.Format, &def.DurationMinutes, &def.TotalMarks, &def.NegativeMarksPerWrong)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, text, marks, COALESCE(image_url, ''), options, correct_option, order_num
		 FROM questions WHERE exam_id = $1 ORDER BY order_num ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.Marks, &q.ImageURL, &options, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("decode options for question %s: %w", q.ID, err)
			}
		}
		def.Questions = append(def.Questions, q)
	}
	return def, rows.Err()
}

// ExamSummary is an exam row without its questions, for listings.
type ExamSummary struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Format          model.ExamFormat `json:"format"`
	DurationMinutes int              `json:"duration_minutes"`
	TotalMarks      float64          `json:"total_marks"`
	QuestionCount   int              `json:"question_count"`
}

// List retrieves all exams without their questions.
func (r *ExamRepository) List(ctx context.Context) ([]ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.format, e.duration_minutes, e.total_marks,
		        (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id)
		 FROM exams e ORDER BY e.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []ExamSummary
	for rows.Next() {
		var e ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Format, &e.DurationMinutes, &e.TotalMarks, &e.QuestionCount); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
