package engine

import (
	"time"

	"github.com/luminedu/assess-engine/internal/model"
)

// BuildSubmission assembles the WRITTEN_UPLOAD submission record handed to
// the external grading collaborator. Pure, single-pass: every question
// appears in definition order, with an empty evidence list when nothing was
// uploaded. Status is PENDING_REVIEW and obtained marks stay zero until a
// grader fills them in outside this engine.
func BuildSubmission(def *model.ExamDefinition, answers *WrittenAnswers, participant model.Participant, submittedAt time.Time) *model.SubmissionRecord {
	record := &model.SubmissionRecord{
		ExamID:          def.ID,
		ParticipantID:   participant.ID,
		ParticipantName: participant.DisplayName,
		SubmittedAt:     submittedAt,
		Status:          model.SubmissionPendingReview,
		ObtainedMarks:   0,
		Answers:         make([]model.QuestionEvidence, 0, len(def.Questions)),
	}

	for _, q := range def.Questions {
		record.Answers = append(record.Answers, model.QuestionEvidence{
			QuestionID:   q.ID,
			EvidenceRefs: answers.Evidence(q.ID),
		})
	}

	return record
}
