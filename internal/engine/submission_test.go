package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminedu/assess-engine/internal/model"
)

func writtenExam(questions int) *model.ExamDefinition {
	def := &model.ExamDefinition{
		ID:              uuid.New(),
		Title:           "Written paper",
		Format:          model.FormatWrittenUpload,
		DurationMinutes: 45,
		TotalMarks:      float64(questions) * 10,
	}
	for i := 0; i < questions; i++ {
		def.Questions = append(def.Questions, model.Question{
			ID:       uuid.New(),
			Text:     "written question",
			Marks:    10,
			OrderNum: i,
		})
	}
	return def
}

func ref(url string) model.EvidenceRef {
	return model.EvidenceRef{URL: url, SizeBytes: 1024}
}

// Scenario: three questions, evidence only for Q1 and Q3. Attempted count is
// two and the record still carries all three questions, Q2 with an empty list.
func TestBuildSubmission_RoundTrip(t *testing.T) {
	def := writtenExam(3)
	s := startedSession(t, def, nil)

	if err := s.AttachEvidence(def.Questions[0].ID, ref("/uploads/a.png")); err != nil {
		t.Fatalf("attach q1: %v", err)
	}
	if err := s.AttachEvidence(def.Questions[2].ID, ref("/uploads/b.png")); err != nil {
		t.Fatalf("attach q3: %v", err)
	}
	if err := s.AttachEvidence(def.Questions[2].ID, ref("/uploads/c.png")); err != nil {
		t.Fatalf("attach q3 second: %v", err)
	}

	if got := s.AttemptedCount(); got != 2 {
		t.Fatalf("attempted = %d, want 2", got)
	}

	out, err := s.Submit(t.Context())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	record := out.Submission
	if record == nil {
		t.Fatal("written exam must finalize into a submission record")
	}

	if record.Status != model.SubmissionPendingReview {
		t.Errorf("Status = %s, want PENDING_REVIEW", record.Status)
	}
	if record.ObtainedMarks != 0 {
		t.Errorf("ObtainedMarks = %v, want 0", record.ObtainedMarks)
	}
	if record.ParticipantID != 7 {
		t.Errorf("ParticipantID = %d, want 7", record.ParticipantID)
	}
	if record.SubmittedAt.IsZero() || record.SubmittedAt.After(time.Now()) {
		t.Errorf("SubmittedAt = %v", record.SubmittedAt)
	}

	if len(record.Answers) != 3 {
		t.Fatalf("record has %d answers, want 3 (every question appears)", len(record.Answers))
	}
	for i, ans := range record.Answers {
		if ans.QuestionID != def.Questions[i].ID {
			t.Errorf("answer %d out of definition order", i)
		}
		if ans.EvidenceRefs == nil {
			t.Errorf("answer %d has a nil evidence list; want empty slice", i)
		}
	}
	if len(record.Answers[0].EvidenceRefs) != 1 || record.Answers[0].EvidenceRefs[0].URL != "/uploads/a.png" {
		t.Errorf("q1 evidence = %+v", record.Answers[0].EvidenceRefs)
	}
	if len(record.Answers[1].EvidenceRefs) != 0 {
		t.Errorf("q2 evidence = %+v, want empty", record.Answers[1].EvidenceRefs)
	}
	if got := record.Answers[2].EvidenceRefs; len(got) != 2 || got[0].URL != "/uploads/b.png" || got[1].URL != "/uploads/c.png" {
		t.Errorf("q3 evidence order = %+v", got)
	}
}

func TestSession_EvidenceLimits(t *testing.T) {
	def := writtenExam(2)
	s := startedSession(t, def, nil)
	qid := def.Questions[0].ID

	for i := 0; i < MaxEvidencePerQuestion; i++ {
		if err := s.AttachEvidence(qid, ref("/uploads/ok.png")); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}
	if err := s.AttachEvidence(qid, ref("/uploads/over.png")); !errors.Is(err, ErrEvidenceLimit) {
		t.Fatalf("sixth attach error = %v, want ErrEvidenceLimit", err)
	}

	oversized := model.EvidenceRef{URL: "/uploads/huge.png", SizeBytes: MaxEvidenceBytes + 1}
	if err := s.AttachEvidence(def.Questions[1].ID, oversized); !errors.Is(err, ErrEvidenceTooLarge) {
		t.Fatalf("oversized attach error = %v, want ErrEvidenceTooLarge", err)
	}

	// Rejections leave prior valid evidence intact.
	if got := s.AttemptedCount(); got != 1 {
		t.Fatalf("attempted = %d, want 1", got)
	}
	if err := s.AttachEvidence(uuid.New(), ref("/uploads/x.png")); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("unknown question error = %v", err)
	}
}

func TestSession_RemoveEvidenceByIndex(t *testing.T) {
	def := writtenExam(2)
	s := startedSession(t, def, nil)
	q1 := def.Questions[0].ID
	q2 := def.Questions[1].ID

	s.AttachEvidence(q1, ref("/uploads/1.png"))
	s.AttachEvidence(q1, ref("/uploads/2.png"))
	s.AttachEvidence(q1, ref("/uploads/3.png"))
	s.AttachEvidence(q2, ref("/uploads/other.png"))

	if err := s.RemoveEvidence(q1, 1); err != nil {
		t.Fatalf("RemoveEvidence: %v", err)
	}
	if err := s.RemoveEvidence(q1, 5); !errors.Is(err, ErrEvidenceIndex) {
		t.Fatalf("out-of-range removal error = %v, want ErrEvidenceIndex", err)
	}

	out, err := s.Submit(t.Context())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got := out.Submission.Answers[0].EvidenceRefs
	if len(got) != 2 || got[0].URL != "/uploads/1.png" || got[1].URL != "/uploads/3.png" {
		t.Errorf("q1 evidence after removal = %+v", got)
	}
	// Removal must not renumber another question's list.
	if other := out.Submission.Answers[1].EvidenceRefs; len(other) != 1 {
		t.Errorf("q2 evidence = %+v", other)
	}
}
