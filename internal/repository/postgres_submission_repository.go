package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/networkhq/network-intake/internal/domain"
)

type postgresSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubmissionRepository returns a Postgres-backed implementation.
// Uniqueness is enforced by the (kind, email) primary key.
func NewPostgresSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &postgresSubmissionRepository{pool: pool}
}

func (r *postgresSubmissionRepository) Exists(ctx context.Context, kind domain.SubmissionKind, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM submissions WHERE kind=$1 AND email=$2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, string(kind), email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	const query = `
        INSERT INTO submissions (kind, email, request_id, organization, contact, phone, phone_region, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (kind, email) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query,
		string(sub.Kind),
		sub.Email,
		sub.RequestID,
		sub.Organization,
		sub.Contact,
		sub.Phone,
		sub.PhoneRegion,
		string(sub.Status),
		sub.CreatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *postgresSubmissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	const query = `
        SELECT kind, email, request_id, organization, contact, phone, phone_region, status, created_at
        FROM submissions
        WHERE ($1 = '' OR kind = $1)
        ORDER BY created_at DESC, kind, email
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, string(filter.Kind), filter.EffectiveLimit(), filter.EffectiveOffset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Submission{}
	for rows.Next() {
		var (
			sub    domain.Submission
			kind   string
			status string
		)
		if err := rows.Scan(
			&kind,
			&sub.Email,
			&sub.RequestID,
			&sub.Organization,
			&sub.Contact,
			&sub.Phone,
			&sub.PhoneRegion,
			&status,
			&sub.CreatedAt,
		); err != nil {
			return nil, err
		}
		sub.Kind = domain.SubmissionKind(kind)
		sub.Status = domain.SubmissionStatus(status)
		items = append(items, sub)
	}
	return items, rows.Err()
}

func (r *postgresSubmissionRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}
