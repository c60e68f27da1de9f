package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes finalized score results from Redis and writes them
// to PostgreSQL in batches.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.ScoreResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			res := &model.ScoreResult{}
			if err := json.Unmarshal([]byte(item[1]), res); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, res)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.ScoreResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, res := range batch {
			if err := w.persistSingle(ctx, res); err != nil {
				w.log.Error().Err(err).
					Str("session_id", res.SessionID.String()).
					Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(res)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
	}
}

// bulkInsertResults writes a whole batch in one statement using UNNEST.
func (w *ResultWorker) bulkInsertResults(ctx context.Context, batch []*model.ScoreResult) error {
	n := len(batch)

	sessionIDs := make([]uuid.UUID, 0, n)
	examIDs := make([]uuid.UUID, 0, n)
	participants := make([]int, 0, n)
	corrects := make([]int, 0, n)
	wrongs := make([]int, 0, n)
	skippeds := make([]int, 0, n)
	rawObtaineds := make([]float64, 0, n)
	deductions := make([]float64, 0, n)
	finals := make([]float64, 0, n)
	totals := make([]float64, 0, n)
	tiers := make([]string, 0, n)
	finishedAts := make([]time.Time, 0, n)
	reviews := make([][]byte, 0, n)

	for _, res := range batch {
		review, err := json.Marshal(res.Review)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, res.SessionID)
		examIDs = append(examIDs, res.ExamID)
		participants = append(participants, res.ParticipantID)
		corrects = append(corrects, res.CorrectCount)
		wrongs = append(wrongs, res.WrongCount)
		skippeds = append(skippeds, res.SkippedCount)
		rawObtaineds = append(rawObtaineds, res.RawObtained)
		deductions = append(deductions, res.NegativeDeduction)
		finals = append(finals, res.FinalScore)
		totals = append(totals, res.TotalMarks)
		tiers = append(tiers, string(res.StatusTier))
		finishedAts = append(finishedAts, res.FinishedAt)
		reviews = append(reviews, review)
	}

	query := `
		INSERT INTO score_results (
			session_id, exam_id, participant_id, correct_count, wrong_count,
			skipped_count, raw_obtained, negative_deduction, final_score,
			total_marks, status_tier, finished_at, review
		)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::int[],
			$4::int[],
			$5::int[],
			$6::int[],
			$7::float8[],
			$8::float8[],
			$9::float8[],
			$10::float8[],
			$11::text[],
			$12::timestamptz[],
			$13::jsonb[]
		)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query,
		sessionIDs, examIDs, participants, corrects, wrongs, skippeds,
		rawObtaineds, deductions, finals, totals, tiers, finishedAts, reviews)
	return err
}

// persistSingle is the fallback insert for one result.
func (w *ResultWorker) persistSingle(ctx context.Context, res *model.ScoreResult) error {
	review, err := json.Marshal(res.Review)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO score_results (
			session_id, exam_id, participant_id, correct_count, wrong_count,
			skipped_count, raw_obtained, negative_deduction, final_score,
			total_marks, status_tier, finished_at, review
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.ExamID, res.ParticipantID, res.CorrectCount, res.WrongCount,
		res.SkippedCount, res.RawObtained, res.NegativeDeduction, res.FinalScore,
		res.TotalMarks, string(res.StatusTier), res.FinishedAt, review,
	)
	return err
}
