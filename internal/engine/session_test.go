package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/model"
)

// recordingSink captures persisted outcomes; it can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	scores []*model.ScoreResult
	subs   []*model.SubmissionRecord
	err    error
}

func (s *recordingSink) PersistScore(_ context.Context, r *model.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.scores = append(s.scores, r)
	return nil
}

func (s *recordingSink) PersistSubmission(_ context.Context, r *model.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.subs = append(s.subs, r)
	return nil
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scores), len(s.subs)
}

func startedSession(t *testing.T, def *model.ExamDefinition, sink ResultSink) *Session {
	t.Helper()
	s := NewSession(def, model.Participant{ID: 7, DisplayName: "Test Participant"}, sink, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Abandon)
	return s
}

func TestSession_StartRejectsMalformedDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(def *model.ExamDefinition)
		want   error
	}{
		{
			name:   "zero questions",
			mutate: func(def *model.ExamDefinition) { def.Questions = nil },
			want:   ErrNoQuestions,
		},
		{
			name:   "non-positive duration",
			mutate: func(def *model.ExamDefinition) { def.DurationMinutes = 0 },
			want:   ErrInvalidDuration,
		},
		{
			name:   "negative penalty config",
			mutate: func(def *model.ExamDefinition) { def.NegativeMarksPerWrong = -1 },
			want:   ErrNegativeMarkConfig,
		},
		{
			name:   "non-positive question marks",
			mutate: func(def *model.ExamDefinition) { def.Questions[0].Marks = 0 },
			want:   ErrBadQuestion,
		},
		{
			name:   "single option question",
			mutate: func(def *model.ExamDefinition) { def.Questions[1].Options = []string{"only"} },
			want:   ErrBadQuestion,
		},
		{
			name:   "answer key out of range",
			mutate: func(def *model.ExamDefinition) { def.Questions[1].CorrectOption = 9 },
			want:   ErrBadQuestion,
		},
		{
			name:   "total marks mismatch",
			mutate: func(def *model.ExamDefinition) { def.TotalMarks = 11 },
			want:   ErrInvalidTotalMarks,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := twoQuestionExam(1)
			tc.mutate(def)

			s := NewSession(def, model.Participant{ID: 1}, nil, zerolog.Nop())
			err := s.Start()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Start error = %v, want %v", err, tc.want)
			}
			if s.State() != StateNotStarted {
				t.Fatalf("state = %s, want NOT_STARTED", s.State())
			}
		})
	}
}

func TestSession_StartTwice(t *testing.T) {
	s := startedSession(t, twoQuestionExam(1), nil)
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestSession_AnswerValidationIsRecoverable(t *testing.T) {
	def := twoQuestionExam(1)
	s := startedSession(t, def, nil)

	if err := s.SelectOption(def.Questions[0].ID, 0); err != nil {
		t.Fatalf("valid select: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{
			name: "unknown question id",
			call: func() error { return s.SelectOption(uuid.New(), 0) },
			want: ErrUnknownQuestion,
		},
		{
			name: "option below range",
			call: func() error { return s.SelectOption(def.Questions[1].ID, -1) },
			want: ErrOptionOutOfRange,
		},
		{
			name: "option above range",
			call: func() error { return s.SelectOption(def.Questions[1].ID, 4) },
			want: ErrOptionOutOfRange,
		},
		{
			name: "evidence on a choice exam",
			call: func() error {
				return s.AttachEvidence(def.Questions[1].ID, model.EvidenceRef{URL: "/uploads/x.png", SizeBytes: 10})
			},
			want: ErrFormatMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if s.State() != StateInProgress {
				t.Fatalf("state = %s after recoverable error", s.State())
			}
			if s.AttemptedCount() != 1 {
				t.Fatalf("prior answers disturbed: attempted = %d", s.AttemptedCount())
			}
		})
	}
}

func TestSession_AttemptedCountIsLive(t *testing.T) {
	def := twoQuestionExam(1)
	s := startedSession(t, def, nil)

	if got := s.AttemptedCount(); got != 0 {
		t.Fatalf("attempted = %d, want 0", got)
	}
	s.SelectOption(def.Questions[0].ID, 2)
	s.SelectOption(def.Questions[1].ID, 3)
	if got := s.AttemptedCount(); got != 2 {
		t.Fatalf("attempted = %d, want 2", got)
	}
	// Re-selecting the same question must not double count.
	s.SelectOption(def.Questions[0].ID, 1)
	if got := s.AttemptedCount(); got != 2 {
		t.Fatalf("attempted = %d after reselect, want 2", got)
	}
	if err := s.ClearSelection(def.Questions[0].ID); err != nil {
		t.Fatalf("ClearSelection: %v", err)
	}
	if got := s.AttemptedCount(); got != 1 {
		t.Fatalf("attempted = %d after clear, want 1", got)
	}

	conf, err := s.Confirmation()
	if err != nil {
		t.Fatalf("Confirmation: %v", err)
	}
	if conf.AttemptedCount != 1 || conf.TotalQuestions != 2 {
		t.Fatalf("confirmation = %+v", conf)
	}
	if conf.RemainingSeconds <= 0 {
		t.Fatalf("RemainingSeconds = %d, want > 0", conf.RemainingSeconds)
	}
}

func TestSession_SubmitFinalizesExactlyOnce(t *testing.T) {
	def := twoQuestionExam(1)
	sink := &recordingSink{}
	s := startedSession(t, def, sink)

	s.SelectOption(def.Questions[0].ID, 0) // correct
	s.SelectOption(def.Questions[1].ID, 3) // wrong

	out, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Trigger != TriggerSubmit || out.Score == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Score.FinalScore != 4 || out.Score.StatusTier != model.TierPassed {
		t.Fatalf("score = %+v", out.Score)
	}
	if s.State() != StateFinalized {
		t.Fatalf("state = %s, want FINALIZED", s.State())
	}

	// A duplicate trigger (an expiry signal racing the submit) is a no-op
	// returning the already-built outcome.
	dup, err := s.finalize(context.Background(), TriggerExpiry)
	if err != nil {
		t.Fatalf("duplicate finalize: %v", err)
	}
	if dup != out {
		t.Fatal("duplicate finalize built a second outcome")
	}
	if scores, _ := sink.counts(); scores != 1 {
		t.Fatalf("sink received %d scores, want 1", scores)
	}

	if err := s.SelectOption(def.Questions[0].ID, 1); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("answer after finalize error = %v, want ErrSessionInactive", err)
	}

	got, err := s.Result()
	if err != nil || got != out {
		t.Fatalf("Result = %v, %v", got, err)
	}
}

// Scenario: durationMinutes=1 with no manual submit. The timer fires expiry
// exactly once and the session finalizes automatically with whatever answers
// existed at the deadline.
func TestSession_ExpiryAutoFinalizes(t *testing.T) {
	def := twoQuestionExam(1)
	def.DurationMinutes = 1
	sink := &recordingSink{}

	s := NewSession(def, model.Participant{ID: 7}, sink, zerolog.Nop())
	s.tickInterval = time.Millisecond
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.SelectOption(def.Questions[0].ID, 0)

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateFinalized {
		if time.Now().After(deadline) {
			t.Fatalf("session never finalized, state = %s", s.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	out, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if out.Trigger != TriggerExpiry {
		t.Fatalf("trigger = %s, want EXPIRY", out.Trigger)
	}
	if out.Score.CorrectCount != 1 || out.Score.SkippedCount != 1 {
		t.Fatalf("score = %+v", out.Score)
	}
	if scores, _ := sink.counts(); scores != 1 {
		t.Fatalf("sink received %d scores, want 1", scores)
	}
}

func TestSession_AbandonEmitsNothing(t *testing.T) {
	def := twoQuestionExam(1)
	def.DurationMinutes = 1
	sink := &recordingSink{}

	s := NewSession(def, model.Participant{ID: 7}, sink, zerolog.Nop())
	s.tickInterval = time.Millisecond
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Abandon()
	s.Abandon() // terminal no-op

	if s.State() != StateAbandoned {
		t.Fatalf("state = %s, want ABANDONED", s.State())
	}
	if _, err := s.Result(); !errors.Is(err, ErrNotFinalized) {
		t.Fatalf("Result error = %v, want ErrNotFinalized", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Submit after abandon error = %v, want ErrSessionInactive", err)
	}

	// The stopped timer must not fire a late expiry-driven finalization.
	time.Sleep(100 * time.Millisecond)
	if scores, subs := sink.counts(); scores != 0 || subs != 0 {
		t.Fatalf("abandoned session persisted an outcome: %d/%d", scores, subs)
	}
}

func TestSession_EndedAtSetOnTerminalStates(t *testing.T) {
	finalized := startedSession(t, twoQuestionExam(1), &recordingSink{})
	if !finalized.EndedAt().IsZero() {
		t.Fatal("EndedAt set while IN_PROGRESS")
	}
	if _, err := finalized.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if finalized.EndedAt().IsZero() {
		t.Fatal("EndedAt still zero after finalization")
	}
	if finalized.EndedAt().Before(finalized.StartedAt()) {
		t.Fatal("EndedAt precedes StartedAt")
	}

	abandoned := startedSession(t, twoQuestionExam(1), &recordingSink{})
	abandoned.Abandon()
	if abandoned.EndedAt().IsZero() {
		t.Fatal("EndedAt still zero after abandon")
	}
}

func TestSession_PersistenceFailureIsRecoverable(t *testing.T) {
	def := twoQuestionExam(1)
	sink := &recordingSink{err: errors.New("store offline")}
	s := startedSession(t, def, sink)

	out, err := s.Submit(context.Background())
	if err == nil {
		t.Fatal("Submit did not surface the persistence failure")
	}
	if out == nil || out.Score == nil {
		t.Fatal("in-memory finalization must succeed despite the sink failure")
	}
	if s.State() != StateFinalized {
		t.Fatalf("state = %s, want FINALIZED", s.State())
	}
	if _, err := s.Result(); err != nil {
		t.Fatalf("Result after sink failure: %v", err)
	}
}

func TestSession_SubmitBeforeStart(t *testing.T) {
	s := NewSession(twoQuestionExam(1), model.Participant{ID: 1}, nil, zerolog.Nop())
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Submit error = %v, want ErrSessionInactive", err)
	}
}
