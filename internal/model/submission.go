package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus tracks the external grading lifecycle of a written-upload
// submission. The engine only ever writes PENDING_REVIEW; GRADED is appended
// by the grading collaborator.
type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "PENDING_REVIEW"
	SubmissionGraded        SubmissionStatus = "GRADED"
)

// EvidenceRef is a stable handle to an externally stored answer image. The
// engine holds the reference and its recorded size, never the bytes.
type EvidenceRef struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
}

// QuestionEvidence pairs a question with the ordered evidence the participant
// attached to it. Questions appear even with an empty list, so downstream
// auditing can tell "attempted but empty" from "question does not exist".
type QuestionEvidence struct {
	QuestionID   uuid.UUID     `json:"question_id"`
	EvidenceRefs []EvidenceRef `json:"evidence_refs"`
	Feedback     *string       `json:"feedback,omitempty"` // grader-written, read-only here
}

// SubmissionRecord is the terminal output of a WRITTEN_UPLOAD session,
// handed to the submissions collaborator for manual grading. ObtainedMarks,
// GradedBy and GradedAt are filled in externally and are read-only inputs on
// any later display.
type SubmissionRecord struct {
	SessionID       uuid.UUID          `json:"session_id"`
	ExamID          uuid.UUID          `json:"exam_id"`
	ParticipantID   int                `json:"participant_id"`
	ParticipantName string             `json:"participant_name"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	Status          SubmissionStatus   `json:"status"`
	ObtainedMarks   float64            `json:"obtained_marks"`
	Answers         []QuestionEvidence `json:"answers"`
	GradedBy        *int               `json:"graded_by,omitempty"`
	GradedAt        *time.Time         `json:"graded_at,omitempty"`
}

// GradeSubmissionRequest is the payload a grader sends to close out a
// pending submission.
type GradeSubmissionRequest struct {
	ObtainedMarks float64                  `json:"obtained_marks" binding:"min=0"`
	Feedback      []QuestionFeedbackUpdate `json:"feedback" binding:"omitempty,dive"`
}

// QuestionFeedbackUpdate attaches grader feedback to one answer.
type QuestionFeedbackUpdate struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Feedback   string    `json:"feedback" binding:"required,max=2000"`
}
