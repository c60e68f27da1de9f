package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/luminedu/assess-engine/internal/model"
)

// twoQuestionExam builds the exam used by the grading scenarios: two
// multiple-choice questions worth 5 marks each, correct options 0 and 1.
func twoQuestionExam(negativePerWrong float64) *model.ExamDefinition {
	q1 := uuid.New()
	q2 := uuid.New()
	return &model.ExamDefinition{
		ID:                    uuid.New(),
		Title:                 "Grading scenarios",
		Format:                model.FormatMultipleChoice,
		DurationMinutes:       30,
		TotalMarks:            10,
		NegativeMarksPerWrong: negativePerWrong,
		Questions: []model.Question{
			{ID: q1, Text: "Q1", Marks: 5, Options: []string{"a", "b", "c", "d"}, CorrectOption: 0, OrderNum: 0},
			{ID: q2, Text: "Q2", Marks: 5, Options: []string{"a", "b", "c", "d"}, CorrectOption: 1, OrderNum: 1},
		},
	}
}

func TestGrade_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		negative    float64
		answers     map[int]int // question position -> selected option
		correct     int
		wrong       int
		skipped     int
		rawObtained float64
		deduction   float64
		finalScore  float64
		tier        model.StatusTier
	}{
		{
			name:     "one correct one wrong lands on the pass boundary",
			negative: 1,
			answers:  map[int]int{0: 0, 1: 3},
			correct:  1, wrong: 1, skipped: 0,
			rawObtained: 5, deduction: 1, finalScore: 4,
			tier: model.TierPassed,
		},
		{
			name:     "both wrong clamps at zero",
			negative: 1,
			answers:  map[int]int{0: 2, 1: 3},
			correct:  0, wrong: 2, skipped: 0,
			rawObtained: 0, deduction: 2, finalScore: 0,
			tier: model.TierFailed,
		},
		{
			name:     "both correct reaches merit",
			negative: 1,
			answers:  map[int]int{0: 0, 1: 1},
			correct:  2, wrong: 0, skipped: 0,
			rawObtained: 10, deduction: 0, finalScore: 10,
			tier: model.TierMerit,
		},
		{
			name:     "all skipped scores zero without deduction",
			negative: 1,
			answers:  nil,
			correct:  0, wrong: 0, skipped: 2,
			rawObtained: 0, deduction: 0, finalScore: 0,
			tier: model.TierFailed,
		},
		{
			name:     "heavy negative marking cannot push below zero",
			negative: 100,
			answers:  map[int]int{0: 0, 1: 3},
			correct:  1, wrong: 1, skipped: 0,
			rawObtained: 5, deduction: 100, finalScore: 0,
			tier: model.TierFailed,
		},
		{
			name:     "zero negative marking disables the penalty",
			negative: 0,
			answers:  map[int]int{0: 0, 1: 3},
			correct:  1, wrong: 1, skipped: 0,
			rawObtained: 5, deduction: 0, finalScore: 5,
			tier: model.TierPassed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := twoQuestionExam(tc.negative)
			answers := NewChoiceAnswers()
			for pos, opt := range tc.answers {
				answers.Select(def.Questions[pos].ID, opt)
			}

			got := Grade(def, answers)

			if got.CorrectCount != tc.correct || got.WrongCount != tc.wrong || got.SkippedCount != tc.skipped {
				t.Fatalf("counts = %d/%d/%d, want %d/%d/%d",
					got.CorrectCount, got.WrongCount, got.SkippedCount,
					tc.correct, tc.wrong, tc.skipped)
			}
			if got.RawObtained != tc.rawObtained {
				t.Errorf("RawObtained = %v, want %v", got.RawObtained, tc.rawObtained)
			}
			if got.NegativeDeduction != tc.deduction {
				t.Errorf("NegativeDeduction = %v, want %v", got.NegativeDeduction, tc.deduction)
			}
			if got.FinalScore != tc.finalScore {
				t.Errorf("FinalScore = %v, want %v", got.FinalScore, tc.finalScore)
			}
			if got.StatusTier != tc.tier {
				t.Errorf("StatusTier = %s, want %s", got.StatusTier, tc.tier)
			}
			if got.FinalScore < 0 || got.FinalScore > def.TotalMarks {
				t.Errorf("FinalScore %v outside [0, %v]", got.FinalScore, def.TotalMarks)
			}
			if got.CorrectCount+got.WrongCount+got.SkippedCount != len(def.Questions) {
				t.Errorf("counts do not partition the question set")
			}
		})
	}
}

// A skipped question must never score worse than a wrong answer.
func TestGrade_SkipNeverWorseThanWrong(t *testing.T) {
	for _, negative := range []float64{0, 0.5, 1, 5, 100} {
		def := twoQuestionExam(negative)

		skip := NewChoiceAnswers()
		skip.Select(def.Questions[0].ID, 0) // Q1 correct, Q2 skipped

		wrong := NewChoiceAnswers()
		wrong.Select(def.Questions[0].ID, 0)
		wrong.Select(def.Questions[1].ID, 3) // Q2 wrong

		if Grade(def, skip).FinalScore < Grade(def, wrong).FinalScore {
			t.Errorf("negative=%v: skipping scored below answering wrong", negative)
		}
	}
}

func TestGrade_ReviewBreakdown(t *testing.T) {
	def := twoQuestionExam(1)
	answers := NewChoiceAnswers()
	answers.Select(def.Questions[0].ID, 0)

	got := Grade(def, answers)

	if len(got.Review) != 2 {
		t.Fatalf("Review has %d rows, want 2", len(got.Review))
	}

	first := got.Review[0]
	if first.QuestionID != def.Questions[0].ID || !first.Correct || first.MarksAwarded != 5 {
		t.Errorf("first review row = %+v", first)
	}
	if first.SelectedOption == nil || *first.SelectedOption != 0 {
		t.Errorf("first SelectedOption = %v, want 0", first.SelectedOption)
	}

	second := got.Review[1]
	if second.SelectedOption != nil {
		t.Errorf("skipped question must have nil SelectedOption, got %v", *second.SelectedOption)
	}
	if second.Correct || second.MarksAwarded != 0 {
		t.Errorf("second review row = %+v", second)
	}
	if second.CorrectOption != 1 {
		t.Errorf("second CorrectOption = %d, want 1", second.CorrectOption)
	}
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		total float64
		want  model.StatusTier
	}{
		{80, 100, model.TierMerit}, // lower bounds are inclusive
		{79.99, 100, model.TierPassed},
		{40, 100, model.TierPassed},
		{39.99, 100, model.TierFailed},
		{100, 100, model.TierMerit},
		{0, 100, model.TierFailed},
		{4, 10, model.TierPassed},
		{0, 0, model.TierFailed},
	}

	for _, tc := range tests {
		if got := TierFor(tc.score, tc.total); got != tc.want {
			t.Errorf("TierFor(%v, %v) = %s, want %s", tc.score, tc.total, got, tc.want)
		}
	}
}
