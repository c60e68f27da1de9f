package engine

import (
	"github.com/google/uuid"

	"github.com/luminedu/assess-engine/internal/model"
)

// Evidence limits for WRITTEN_UPLOAD answers.
const (
	MaxEvidencePerQuestion = 5
	MaxEvidenceBytes       = 5 << 20 // 5 MB per item
)

// ChoiceAnswers holds a MULTIPLE_CHOICE participant's current selections.
// A question absent from the map is skipped — there is no sentinel index.
// One instance exists per session and is only touched by its owning session.
type ChoiceAnswers struct {
	selected map[uuid.UUID]int
}

// NewChoiceAnswers returns an empty selection map.
func NewChoiceAnswers() *ChoiceAnswers {
	return &ChoiceAnswers{selected: make(map[uuid.UUID]int)}
}

// Select records or replaces the participant's choice for a question.
// Range validation against the question's options happens in the session,
// which owns the exam definition.
func (a *ChoiceAnswers) Select(questionID uuid.UUID, option int) {
	a.selected[questionID] = option
}

// Selected returns the chosen option and whether the question was answered.
func (a *ChoiceAnswers) Selected(questionID uuid.UUID) (int, bool) {
	opt, ok := a.selected[questionID]
	return opt, ok
}

// Clear removes a selection, returning the question to skipped.
func (a *ChoiceAnswers) Clear(questionID uuid.UUID) {
	delete(a.selected, questionID)
}

// AttemptedCount is the number of questions with a recorded selection.
// Recomputed live; never cached.
func (a *ChoiceAnswers) AttemptedCount() int {
	return len(a.selected)
}

// WrittenAnswers holds a WRITTEN_UPLOAD participant's evidence references,
// in attachment order per question.
type WrittenAnswers struct {
	evidence map[uuid.UUID][]model.EvidenceRef
}

// NewWrittenAnswers returns an empty evidence map.
func NewWrittenAnswers() *WrittenAnswers {
	return &WrittenAnswers{evidence: make(map[uuid.UUID][]model.EvidenceRef)}
}

// Attach appends an evidence reference to a question's list, preserving
// insertion order. It rejects the append once the per-question ceiling is
// reached; the existing list is left untouched.
func (a *WrittenAnswers) Attach(questionID uuid.UUID, ref model.EvidenceRef) error {
	refs := a.evidence[questionID]
	if len(refs) >= MaxEvidencePerQuestion {
		return ErrEvidenceLimit
	}
	a.evidence[questionID] = append(refs, ref)
	return nil
}

// RemoveAt deletes one evidence item by index. Other questions' lists are
// never renumbered.
func (a *WrittenAnswers) RemoveAt(questionID uuid.UUID, index int) error {
	refs := a.evidence[questionID]
	if index < 0 || index >= len(refs) {
		return ErrEvidenceIndex
	}
	a.evidence[questionID] = append(refs[:index], refs[index+1:]...)
	return nil
}

// Evidence returns a copy of the question's evidence list.
func (a *WrittenAnswers) Evidence(questionID uuid.UUID) []model.EvidenceRef {
	refs := a.evidence[questionID]
	out := make([]model.EvidenceRef, len(refs))
	copy(out, refs)
	return out
}

// AttemptedCount is the number of questions with at least one evidence item.
func (a *WrittenAnswers) AttemptedCount() int {
	n := 0
	for _, refs := range a.evidence {
		if len(refs) > 0 {
			n++
		}
	}
	return n
}
