package engine

import (
	"testing"

	"github.com/google/uuid"
)

func TestChoiceAnswers_SkipIsAbsence(t *testing.T) {
	a := NewChoiceAnswers()
	qid := uuid.New()

	if _, ok := a.Selected(qid); ok {
		t.Fatal("unanswered question reported as selected")
	}

	a.Select(qid, 0)
	if opt, ok := a.Selected(qid); !ok || opt != 0 {
		t.Fatalf("Selected = %d,%v; option zero must be distinguishable from skipped", opt, ok)
	}

	a.Clear(qid)
	if _, ok := a.Selected(qid); ok {
		t.Fatal("cleared question still reported as selected")
	}
	if a.AttemptedCount() != 0 {
		t.Fatalf("attempted = %d, want 0", a.AttemptedCount())
	}
}

func TestWrittenAnswers_EvidenceReturnsCopy(t *testing.T) {
	a := NewWrittenAnswers()
	qid := uuid.New()

	a.Attach(qid, ref("/uploads/a.png"))
	a.Attach(qid, ref("/uploads/b.png"))

	got := a.Evidence(qid)
	got[0].URL = "/uploads/mutated.png"

	if a.Evidence(qid)[0].URL != "/uploads/a.png" {
		t.Fatal("Evidence exposed internal state")
	}
}

func TestWrittenAnswers_AttemptedIgnoresEmptiedLists(t *testing.T) {
	a := NewWrittenAnswers()
	qid := uuid.New()

	a.Attach(qid, ref("/uploads/a.png"))
	if a.AttemptedCount() != 1 {
		t.Fatalf("attempted = %d, want 1", a.AttemptedCount())
	}

	if err := a.RemoveAt(qid, 0); err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	// An emptied list no longer counts as attempted.
	if a.AttemptedCount() != 0 {
		t.Fatalf("attempted = %d, want 0", a.AttemptedCount())
	}
}
