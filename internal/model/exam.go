package model

import (
	"github.com/google/uuid"
)

// ExamFormat selects the submission modality and the grading path of an exam.
type ExamFormat string

const (
	// FormatMultipleChoice exams are auto-graded by the scoring engine.
	FormatMultipleChoice ExamFormat = "MULTIPLE_CHOICE"
	// FormatWrittenUpload exams collect evidence images for manual grading.
	FormatWrittenUpload ExamFormat = "WRITTEN_UPLOAD"
)

// ExamDefinition is the read-only input a session consumes. It is fetched
// whole before the session starts and must not change while the session runs.
type ExamDefinition struct {
	ID                    uuid.UUID  `json:"id"`
	Title                 string     `json:"title"`
	Format                ExamFormat `json:"format"`
	DurationMinutes       int        `json:"duration_minutes"`
	TotalMarks            float64    `json:"total_marks"`
	NegativeMarksPerWrong float64    `json:"negative_marks_per_wrong"`
	Questions             []Question `json:"questions"`
}

// ExamPaper is the participant-facing view of an exam, cached in Redis.
// Correct options are stripped before it leaves the server.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	Format          ExamFormat           `json:"format"`
	DurationMinutes int                  `json:"duration_minutes"`
	TotalMarks      float64              `json:"total_marks"`
	Questions       []QuestionForAttempt `json:"questions"`
}

// QuestionForAttempt is a question without its answer key.
type QuestionForAttempt struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Marks    float64   `json:"marks"`
	ImageURL string    `json:"image_url,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// PaperFor strips the answer key from an exam definition.
func PaperFor(def *ExamDefinition) *ExamPaper {
	paper := &ExamPaper{
		ExamID:          def.ID,
		Title:           def.Title,
		Format:          def.Format,
		DurationMinutes: def.DurationMinutes,
		TotalMarks:      def.TotalMarks,
		Questions:       make([]QuestionForAttempt, 0, len(def.Questions)),
	}
	for _, q := range def.Questions {
		paper.Questions = append(paper.Questions, QuestionForAttempt{
			ID:       q.ID,
			Text:     q.Text,
			Marks:    q.Marks,
			ImageURL: q.ImageURL,
			Options:  q.Options,
		})
	}
	return paper
}
