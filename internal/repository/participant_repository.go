package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminedu/assess-engine/internal/model"
)

// ParticipantRepository handles participant and grader account lookups.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByNo retrieves a participant by their unique participant number.
func (r *ParticipantRepository) GetByNo(ctx context.Context, participantNo string) (*model.ParticipantAccount, error) {
	p := &model.ParticipantAccount{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, participant_no, display_name, access_code_hash
		 FROM participants WHERE participant_no = $1`, participantNo,
	).Scan(&p.ID, &p.ParticipantNo, &p.DisplayName, &p.AccessCodeHash)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a participant by ID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id int) (*model.ParticipantAccount, error) {
	p := &model.ParticipantAccount{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, participant_no, display_name, access_code_hash
		 FROM participants WHERE id = $1`, id,
	).Scan(&p.ID, &p.ParticipantNo, &p.DisplayName, &p.AccessCodeHash)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a participant and returns the generated ID.
func (r *ParticipantRepository) Create(ctx context.Context, p *model.ParticipantAccount) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO participants (participant_no, display_name, access_code_hash)
		 VALUES ($1, $2, $3) RETURNING id`,
		p.ParticipantNo, p.DisplayName, p.AccessCodeHash,
	).Scan(&p.ID)
}

// GetGraderByEmail retrieves a grader by their unique email.
func (r *ParticipantRepository) GetGraderByEmail(ctx context.Context, email string) (*model.GraderAccount, error) {
	g := &model.GraderAccount{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, access_code_hash
		 FROM graders WHERE email = $1`, email,
	).Scan(&g.ID, &g.Name, &g.Email, &g.AccessCodeHash)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGrader inserts a grader and returns the generated ID.
func (r *ParticipantRepository) CreateGrader(ctx context.Context, g *model.GraderAccount) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO graders (name, email, access_code_hash)
		 VALUES ($1, $2, $3) RETURNING id`,
		g.Name, g.Email, g.AccessCodeHash,
	).Scan(&g.ID)
}
