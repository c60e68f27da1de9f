package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/model"
)

// SubmissionWorker consumes finalized written submissions from Redis and
// writes them to PostgreSQL one by one.
type SubmissionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "submission_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSubmissionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	sub := &model.SubmissionRecord{}
	if err := json.Unmarshal([]byte(result[1]), sub); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistSubmission(ctx, sub); err != nil {
		w.log.Error().Err(err).
			Str("session_id", sub.SessionID.String()).
			Int("participant_id", sub.ParticipantID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SubmissionWorker) persistSubmission(ctx context.Context, sub *model.SubmissionRecord) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO submissions (
			session_id, exam_id, participant_id, participant_name,
			submitted_at, status, obtained_marks, answers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING`,
		sub.SessionID, sub.ExamID, sub.ParticipantID, sub.ParticipantName,
		sub.SubmittedAt, string(sub.Status), sub.ObtainedMarks, answers,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSubmissionsQueue).Result()
		if err != nil {
			break
		}

		sub := &model.SubmissionRecord{}
		if err := json.Unmarshal([]byte(result), sub); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistSubmission(ctx, sub); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
