package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/engine"
	"github.com/luminedu/assess-engine/internal/model"
	"github.com/luminedu/assess-engine/internal/repository"
)

// Session registry errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another participant")
	ErrAttemptInFlight = errors.New("an attempt for this exam is already running")
	ErrResultNotReady  = errors.New("result is not available yet")
)

// SessionService hosts live attempt sessions in memory and bridges them to
// the exam catalog, the Redis persistence queues, and the result stores.
type SessionService struct {
	examRepo       *repository.ExamRepository
	resultRepo     *repository.ResultRepository
	submissionRepo *repository.SubmissionRepository
	rdb            *redis.Client
	log            zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*engine.Session
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	examRepo *repository.ExamRepository,
	resultRepo *repository.ResultRepository,
	submissionRepo *repository.SubmissionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		examRepo:       examRepo,
		resultRepo:     resultRepo,
		submissionRepo: submissionRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "session_service").Logger(),
		sessions:       make(map[uuid.UUID]*engine.Session),
	}
}

// queueSink pushes finalized outcomes onto Redis lists consumed by the
// persistence workers. The session is already FINALIZED when these run, so
// a push failure is recoverable: the caller may retry via the session's
// Result and a later re-push.
type queueSink struct {
	rdb *redis.Client
}

func (q *queueSink) PersistScore(ctx context.Context, result *model.ScoreResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue score: %w", err)
	}
	return nil
}

func (q *queueSink) PersistSubmission(ctx context.Context, record *model.SubmissionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue submission: %w", err)
	}
	return nil
}

// GetPaper returns the participant-facing paper for an exam, cached in Redis.
func (s *SessionService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	paperKey := config.CacheKey.ExamPaperKey(examID.String())

	cached, err := s.rdb.Get(ctx, paperKey).Result()
	if err == nil {
		paper := &model.ExamPaper{}
		if err := json.Unmarshal([]byte(cached), paper); err == nil {
			return paper, nil
		}
		// Corrupt cache entry: fall through to the database and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached paper: %w", err)
	}

	def, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	paper := model.PaperFor(def)
	if payload, err := json.Marshal(paper); err == nil {
		_ = s.rdb.Set(ctx, paperKey, payload, time.Hour).Err()
	}
	return paper, nil
}

// ListExams returns the exam catalog for the lobby.
func (s *SessionService) ListExams(ctx context.Context) ([]repository.ExamSummary, error) {
	return s.examRepo.List(ctx)
}

// StartSession loads the exam definition, creates an in-memory session for
// the participant and starts its countdown. A participant may run at most one
// attempt per exam at a time; starting again while one is IN_PROGRESS returns
// the running session.
func (s *SessionService) StartSession(ctx context.Context, examID uuid.UUID, participant model.Participant) (*engine.Session, error) {
	def, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	activeKey := config.CacheKey.ParticipantActiveSessionKey(examID.String(), participant.ID)
	expiry := time.Duration(def.DurationMinutes)*time.Minute + time.Minute

	claimed, err := s.claimActiveMarker(ctx, activeKey)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another attempt holds the marker. Resume it when it is live here.
		if existingID, err := s.rdb.Get(ctx, activeKey).Result(); err == nil {
			if sid, parseErr := uuid.Parse(existingID); parseErr == nil {
				if sess, ok := s.get(sid); ok && sess.State() == engine.StateInProgress {
					return sess, ErrAttemptInFlight
				}
			}
		}
		return nil, ErrAttemptInFlight
	}

	sess := engine.NewSession(def, participant, &queueSink{rdb: s.rdb}, s.log)
	if err := sess.Start(); err != nil {
		_ = s.rdb.Del(ctx, activeKey).Err()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if err := s.rdb.Set(ctx, activeKey, sess.ID.String(), expiry).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to mark active session")
	}
	if err := s.rdb.Set(ctx, config.CacheKey.SessionStartKey(sess.ID.String()), sess.StartedAt().Unix(), expiry).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache session start time")
	}

	return sess, nil
}

// markerClaimed is the placeholder value held between claiming the
// active-attempt marker and writing the real session ID into it. Its short
// TTL frees the slot if the process dies mid-start.
const markerClaimed = "claiming"

const claimTTL = 10 * time.Second

// claimActiveMarker takes the participant's per-exam attempt slot with
// SETNX so two concurrent starts cannot both pass. A marker left behind by
// a finished or lost session is deleted and the claim retried once.
func (s *SessionService) claimActiveMarker(ctx context.Context, key string) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, key, markerClaimed, claimTTL).Result()
		if err != nil {
			return false, fmt.Errorf("claim active session: %w", err)
		}
		if ok {
			return true, nil
		}

		existing, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Holder vanished between SETNX and GET; claim again.
			continue
		}
		if err != nil {
			return false, fmt.Errorf("check active session: %w", err)
		}
		if existing == markerClaimed {
			return false, nil
		}
		if sid, parseErr := uuid.Parse(existing); parseErr == nil {
			if sess, ok := s.get(sid); ok && sess.State() == engine.StateInProgress {
				return false, nil
			}
		}
		// Stale marker from a finished or lost session.
		_ = s.rdb.Del(ctx, key).Err()
	}
	return false, nil
}

// GetOwned returns the live session and verifies it belongs to the
// participant.
func (s *SessionService) GetOwned(sessionID uuid.UUID, participantID int) (*engine.Session, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Participant().ID != participantID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

func (s *SessionService) get(sessionID uuid.UUID) (*engine.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Submit finalizes the session and drops the active-session marker. The
// session stays registered so its result remains readable before the worker
// has persisted it.
func (s *SessionService) Submit(ctx context.Context, sessionID uuid.UUID, participantID int) (*engine.Outcome, error) {
	sess, err := s.GetOwned(sessionID, participantID)
	if err != nil {
		return nil, err
	}

	out, err := sess.Submit(ctx)
	if out != nil {
		s.clearActiveMarker(ctx, sess)
	}
	return out, err
}

// Abandon discards the session without emitting a score or submission.
func (s *SessionService) Abandon(ctx context.Context, sessionID uuid.UUID, participantID int) error {
	sess, err := s.GetOwned(sessionID, participantID)
	if err != nil {
		return err
	}

	sess.Abandon()
	s.clearActiveMarker(ctx, sess)

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *SessionService) clearActiveMarker(ctx context.Context, sess *engine.Session) {
	activeKey := config.CacheKey.ParticipantActiveSessionKey(sess.ExamID().String(), sess.Participant().ID)
	if err := s.rdb.Del(ctx, activeKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear active session marker")
	}
}

// GetResult returns the outcome of a finalized session. It prefers the live
// in-memory session; once the session is gone it falls back to the persisted
// stores.
func (s *SessionService) GetResult(ctx context.Context, sessionID uuid.UUID, participantID int) (*engine.Outcome, error) {
	if sess, ok := s.get(sessionID); ok {
		if sess.Participant().ID != participantID {
			return nil, ErrNotSessionOwner
		}
		out, err := sess.Result()
		if err != nil {
			return nil, ErrResultNotReady
		}
		return out, nil
	}

	if res, err := s.resultRepo.GetBySession(ctx, sessionID); err == nil {
		if res.ParticipantID != participantID {
			return nil, ErrNotSessionOwner
		}
		return &engine.Outcome{Score: res}, nil
	}

	sub, err := s.submissionRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sub.ParticipantID != participantID {
		return nil, ErrNotSessionOwner
	}
	return &engine.Outcome{Submission: sub}, nil
}

// ListResults returns a participant's persisted score results.
func (s *SessionService) ListResults(ctx context.Context, participantID int) ([]model.ScoreResult, error) {
	return s.resultRepo.ListByParticipant(ctx, participantID)
}

// Evict removes finalized and abandoned sessions from the registry. Called
// periodically by the server to bound memory. Retention is measured from
// the moment the session ended, so a long exam's result stays readable for
// the full window after finalization.
func (s *SessionService) Evict(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		state := sess.State()
		if state != engine.StateFinalized && state != engine.StateAbandoned {
			continue
		}
		if sess.EndedAt().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted
}
