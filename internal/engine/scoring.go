package engine

import (
	"github.com/luminedu/assess-engine/internal/model"
)

// Status tier thresholds, inclusive on the lower bound.
const (
	MeritThreshold  = 0.80
	PassedThreshold = 0.40
)

// Grade scores a MULTIPLE_CHOICE attempt. It is pure and deterministic: one
// pass over the questions in definition order, aggregate negative marking,
// and a zero floor on the final score. RawObtained cannot exceed TotalMarks
// by construction, so no upper clamp is applied.
//
// Identity and timestamps are stamped by the owning session afterwards.
func Grade(def *model.ExamDefinition, answers *ChoiceAnswers) *model.ScoreResult {
	result := &model.ScoreResult{
		ExamID:     def.ID,
		TotalMarks: def.TotalMarks,
		Review:     make([]model.QuestionReview, 0, len(def.Questions)),
	}

	for _, q := range def.Questions {
		review := model.QuestionReview{
			QuestionID:    q.ID,
			CorrectOption: q.CorrectOption,
		}

		selected, answered := answers.Selected(q.ID)
		switch {
		case !answered:
			result.SkippedCount++
		case selected == q.CorrectOption:
			result.CorrectCount++
			result.RawObtained += q.Marks
			sel := selected
			review.SelectedOption = &sel
			review.Correct = true
			review.MarksAwarded = q.Marks
		default:
			// Wrong answers score nothing here; the penalty is applied
			// in aggregate below.
			result.WrongCount++
			sel := selected
			review.SelectedOption = &sel
		}

		result.Review = append(result.Review, review)
	}

	result.NegativeDeduction = float64(result.WrongCount) * def.NegativeMarksPerWrong
	result.FinalScore = result.RawObtained - result.NegativeDeduction
	if result.FinalScore < 0 {
		result.FinalScore = 0
	}
	result.StatusTier = TierFor(result.FinalScore, def.TotalMarks)

	return result
}

// TierFor maps a final score to its status tier.
func TierFor(finalScore, totalMarks float64) model.StatusTier {
	if totalMarks <= 0 {
		return model.TierFailed
	}
	ratio := finalScore / totalMarks
	switch {
	case ratio >= MeritThreshold:
		return model.TierMerit
	case ratio >= PassedThreshold:
		return model.TierPassed
	default:
		return model.TierFailed
	}
}
