package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusTier classifies a final score against the exam's total marks.
// Lower bounds are inclusive: >=80% MERIT, >=40% PASSED, else FAILED.
type StatusTier string

const (
	TierMerit  StatusTier = "MERIT"
	TierPassed StatusTier = "PASSED"
	TierFailed StatusTier = "FAILED"
)

// ScoreResult is the terminal output of an auto-graded MULTIPLE_CHOICE
// session. FinalScore is always within [0, TotalMarks].
type ScoreResult struct {
	SessionID         uuid.UUID        `json:"session_id"`
	ExamID            uuid.UUID        `json:"exam_id"`
	ParticipantID     int              `json:"participant_id"`
	CorrectCount      int              `json:"correct_count"`
	WrongCount        int              `json:"wrong_count"`
	SkippedCount      int              `json:"skipped_count"`
	RawObtained       float64          `json:"raw_obtained"`
	NegativeDeduction float64          `json:"negative_deduction"`
	FinalScore        float64          `json:"final_score"`
	TotalMarks        float64          `json:"total_marks"`
	StatusTier        StatusTier       `json:"status_tier"`
	FinishedAt        time.Time        `json:"finished_at"`
	Review            []QuestionReview `json:"review"`
}

// QuestionReview is one row of the answer-key breakdown, derived during
// grading and never stored as separate state.
type QuestionReview struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption *int      `json:"selected_option"` // nil when skipped
	CorrectOption  int       `json:"correct_option"`
	Correct        bool      `json:"correct"`
	MarksAwarded   float64   `json:"marks_awarded"`
}
