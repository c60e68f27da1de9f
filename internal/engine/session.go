package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/model"
)

// State is the session's finite-state value. FINALIZED and ABANDONED are
// terminal.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateFinalizing State = "FINALIZING"
	StateFinalized  State = "FINALIZED"
	StateAbandoned  State = "ABANDONED"
)

// Trigger records what caused finalization.
type Trigger string

const (
	TriggerSubmit Trigger = "SUBMIT"
	TriggerExpiry Trigger = "EXPIRY"
)

// Outcome is the terminal result of a session: exactly one of Score or
// Submission is set, depending on the exam format.
type Outcome struct {
	Trigger    Trigger                 `json:"trigger"`
	Score      *model.ScoreResult      `json:"score,omitempty"`
	Submission *model.SubmissionRecord `json:"submission,omitempty"`
}

// ResultSink receives the finalized outcome. Persistence sits outside the
// finalization boundary: the session is FINALIZED before the sink runs, and
// a sink failure is reported to the caller as a recoverable error.
type ResultSink interface {
	PersistScore(ctx context.Context, result *model.ScoreResult) error
	PersistSubmission(ctx context.Context, record *model.SubmissionRecord) error
}

// Confirmation is the live snapshot shown to the participant before a
// manual submit. Attempted is recomputed on every call, never cached.
type Confirmation struct {
	AttemptedCount   int `json:"attempted_count"`
	TotalQuestions   int `json:"total_questions"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// Session runs one participant's bounded-duration attempt at one exam. It
// owns its answer state and deadline timer exclusively; all mutation goes
// through its methods under a single mutex. Manual submit and timer expiry
// race safely — whichever reaches finalize first wins and the loser is a
// no-op.
type Session struct {
	ID          uuid.UUID
	def         *model.ExamDefinition
	participant model.Participant
	sink        ResultSink
	log         zerolog.Logger

	// tickInterval compresses wall-clock time in package tests.
	tickInterval time.Duration

	mu          sync.Mutex
	state       State
	startedAt   time.Time
	endedAt     time.Time
	questions   map[uuid.UUID]*model.Question
	choices     *ChoiceAnswers
	written     *WrittenAnswers
	timer       *DeadlineTimer
	outcome     *Outcome
	released    chan struct{}
	releaseOnce sync.Once
}

// NewSession creates a session in NOT_STARTED. The definition is validated
// at Start, not here.
func NewSession(def *model.ExamDefinition, participant model.Participant, sink ResultSink, log zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:          id,
		def:         def,
		participant: participant,
		sink:        sink,
		log: log.With().
			Str("component", "session").
			Str("session_id", id.String()).
			Str("exam_id", def.ID.String()).
			Int("participant_id", participant.ID).
			Logger(),
		tickInterval: time.Second,
		state:        StateNotStarted,
		released:     make(chan struct{}),
	}
}

// Start validates the exam definition, initializes the format-appropriate
// answer store and starts the deadline timer. Configuration errors are
// fatal: the session stays NOT_STARTED.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	if err := validateDefinition(s.def); err != nil {
		return err
	}

	s.questions = make(map[uuid.UUID]*model.Question, len(s.def.Questions))
	for i := range s.def.Questions {
		q := &s.def.Questions[i]
		s.questions[q.ID] = q
	}

	switch s.def.Format {
	case model.FormatMultipleChoice:
		s.choices = NewChoiceAnswers()
	case model.FormatWrittenUpload:
		s.written = NewWrittenAnswers()
	}

	s.startedAt = time.Now()
	s.timer = newDeadlineTimer(s.def.DurationMinutes*60, s.tickInterval)
	s.timer.Start()
	s.state = StateInProgress

	go s.watchExpiry()

	s.log.Info().Int("duration_minutes", s.def.DurationMinutes).Msg("Session started")
	return nil
}

// watchExpiry finalizes the session when the timer fires. It exits without
// firing when the session is released by submit or abandon first.
func (s *Session) watchExpiry() {
	select {
	case <-s.timer.Expired():
		if _, err := s.finalize(context.Background(), TriggerExpiry); err != nil {
			s.log.Error().Err(err).Msg("Expiry finalization reported an error")
		}
	case <-s.released:
	}
}

// SelectOption records a MULTIPLE_CHOICE answer. Validation failures are
// recoverable: prior answers stay intact and the session stays IN_PROGRESS.
func (s *Session) SelectOption(questionID uuid.UUID, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionInactive
	}
	if s.def.Format != model.FormatMultipleChoice {
		return ErrFormatMismatch
	}
	q, ok := s.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if option < 0 || option >= len(q.Options) {
		return ErrOptionOutOfRange
	}

	s.choices.Select(questionID, option)
	return nil
}

// ClearSelection returns a question to skipped.
func (s *Session) ClearSelection(questionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionInactive
	}
	if s.def.Format != model.FormatMultipleChoice {
		return ErrFormatMismatch
	}
	if _, ok := s.questions[questionID]; !ok {
		return ErrUnknownQuestion
	}

	s.choices.Clear(questionID)
	return nil
}

// AttachEvidence appends an uploaded-evidence reference to a WRITTEN_UPLOAD
// question. Oversized items and items past the per-question ceiling are
// rejected, not truncated.
func (s *Session) AttachEvidence(questionID uuid.UUID, ref model.EvidenceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionInactive
	}
	if s.def.Format != model.FormatWrittenUpload {
		return ErrFormatMismatch
	}
	if _, ok := s.questions[questionID]; !ok {
		return ErrUnknownQuestion
	}
	if ref.SizeBytes > MaxEvidenceBytes {
		return ErrEvidenceTooLarge
	}

	return s.written.Attach(questionID, ref)
}

// RemoveEvidence deletes one evidence item by index.
func (s *Session) RemoveEvidence(questionID uuid.UUID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionInactive
	}
	if s.def.Format != model.FormatWrittenUpload {
		return ErrFormatMismatch
	}
	if _, ok := s.questions[questionID]; !ok {
		return ErrUnknownQuestion
	}

	return s.written.RemoveAt(questionID, index)
}

// AttemptedCount recomputes the number of attempted questions: answered
// questions for MULTIPLE_CHOICE, questions with evidence for WRITTEN_UPLOAD.
func (s *Session) AttemptedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptedLocked()
}

func (s *Session) attemptedLocked() int {
	switch {
	case s.choices != nil:
		return s.choices.AttemptedCount()
	case s.written != nil:
		return s.written.AttemptedCount()
	default:
		return 0
	}
}

// Confirmation builds the pre-submit prompt snapshot.
func (s *Session) Confirmation() (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, ErrSessionInactive
	}
	return &Confirmation{
		AttemptedCount:   s.attemptedLocked(),
		TotalQuestions:   len(s.def.Questions),
		RemainingSeconds: s.timer.Remaining(),
	}, nil
}

// Submit finalizes the session on explicit participant confirmation.
func (s *Session) Submit(ctx context.Context) (*Outcome, error) {
	return s.finalize(ctx, TriggerSubmit)
}

// Abandon releases the session without emitting any result. Distinct from
// both manual submit and expiry. No-op on already-terminal sessions.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return
	}
	s.timer.Stop()
	s.release()
	s.state = StateAbandoned
	s.endedAt = time.Now()
	s.log.Info().Msg("Session abandoned")
}

// finalize is the single idempotent path from IN_PROGRESS to FINALIZED. A
// second trigger (a duplicate expiry racing a manual submit) observes the
// terminal state and returns the already-built outcome.
func (s *Session) finalize(ctx context.Context, trigger Trigger) (*Outcome, error) {
	s.mu.Lock()
	switch s.state {
	case StateInProgress:
		// proceed
	case StateFinalized:
		out := s.outcome
		s.mu.Unlock()
		return out, nil
	default:
		s.mu.Unlock()
		return nil, ErrSessionInactive
	}

	s.state = StateFinalizing
	s.timer.Stop()
	s.release()

	now := time.Now()
	out := &Outcome{Trigger: trigger}

	switch s.def.Format {
	case model.FormatMultipleChoice:
		score := Grade(s.def, s.choices)
		score.SessionID = s.ID
		score.ParticipantID = s.participant.ID
		score.FinishedAt = now
		out.Score = score
	case model.FormatWrittenUpload:
		sub := BuildSubmission(s.def, s.written, s.participant, now)
		sub.SessionID = s.ID
		out.Submission = sub
	}

	s.outcome = out
	s.state = StateFinalized
	s.endedAt = now
	s.mu.Unlock()

	s.log.Info().Str("trigger", string(trigger)).Msg("Session finalized")

	if s.sink != nil {
		var err error
		switch {
		case out.Score != nil:
			err = s.sink.PersistScore(ctx, out.Score)
		case out.Submission != nil:
			err = s.sink.PersistSubmission(ctx, out.Submission)
		}
		if err != nil {
			// The in-memory session is already FINALIZED; surface the
			// persistence failure as a recoverable error.
			s.log.Error().Err(err).Msg("Outcome persistence failed")
			return out, fmt.Errorf("persist outcome: %w", err)
		}
	}

	return out, nil
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		close(s.released)
	})
}

// Result returns the finalized outcome.
func (s *Session) Result() (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome == nil {
		return nil, ErrNotFinalized
	}
	return s.outcome, nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemainingSeconds reports the countdown value, zero before Start.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return 0
	}
	return s.timer.Remaining()
}

// Ticks exposes the countdown stream for the hosting layer. Nil before
// Start.
func (s *Session) Ticks() <-chan int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return nil
	}
	return s.timer.Ticks()
}

// ExamID identifies the exam under attempt.
func (s *Session) ExamID() uuid.UUID {
	return s.def.ID
}

// Format reports the exam's submission modality.
func (s *Session) Format() model.ExamFormat {
	return s.def.Format
}

// Participant returns the attempt's owner, for ownership checks in the
// hosting layer.
func (s *Session) Participant() model.Participant {
	return s.participant
}

// StartedAt reports when the session entered IN_PROGRESS.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// EndedAt reports when the session reached a terminal state, zero while it
// is still running.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// validateDefinition rejects malformed exam definitions before a session
// may enter IN_PROGRESS.
func validateDefinition(def *model.ExamDefinition) error {
	if len(def.Questions) == 0 {
		return ErrNoQuestions
	}
	if def.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if def.NegativeMarksPerWrong < 0 {
		return ErrNegativeMarkConfig
	}

	var sum float64
	for i := range def.Questions {
		q := &def.Questions[i]
		if q.Marks <= 0 {
			return fmt.Errorf("%w: question %s has non-positive marks", ErrBadQuestion, q.ID)
		}
		if def.Format == model.FormatMultipleChoice {
			if len(q.Options) < 2 {
				return fmt.Errorf("%w: question %s needs at least two options", ErrBadQuestion, q.ID)
			}
			if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
				return fmt.Errorf("%w: question %s has an out-of-range answer key", ErrBadQuestion, q.ID)
			}
		}
		sum += q.Marks
	}

	if math.Abs(sum-def.TotalMarks) > 1e-9 {
		return ErrInvalidTotalMarks
	}
	return nil
}
