package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

// Sentinel errors surfaced by the Postgres implementation.
var (
	// ErrDuplicateHandle reports a unique-handle collision at insert time.
	ErrDuplicateHandle = errors.New("handle already in use")
	// ErrRefreshTokenMismatch reports that a conditional rotation found the
	// stored refresh token no longer equal to the presented one.
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")
)

// PrincipalRepository defines persistence access for principal records.
type PrincipalRepository interface {
	Create(ctx context.Context, p *domain.Principal) error
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetByHandle(ctx context.Context, role domain.Role, email, mobile string) (*domain.Principal, error)
	UpdateDetails(ctx context.Context, p *domain.Principal) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
	List(ctx context.Context, role domain.Role) ([]domain.Principal, error)
}

type principalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository returns a Postgres-backed implementation.
func NewPrincipalRepository(pool *pgxpool.Pool) PrincipalRepository {
	return &principalRepository{pool: pool}
}

const principalColumns = `id, role, full_name, email, mobile, password_hash, refresh_token, created_at, updated_at`

func scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var p domain.Principal
	if err := row.Scan(
		&p.ID,
		&p.Role,
		&p.FullName,
		&p.Email,
		&p.Mobile,
		&p.PasswordHash,
		&p.RefreshToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *principalRepository) Create(ctx context.Context, p *domain.Principal) error {
	const query = `
        INSERT INTO principals (role, full_name, email, mobile, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Role,
		p.FullName,
		p.Email,
		p.Mobile,
		p.PasswordHash,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHandle
		}
		return err
	}
	return nil
}

func (r *principalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	const query = `SELECT ` + principalColumns + ` FROM principals WHERE id=$1`
	return scanPrincipal(r.pool.QueryRow(ctx, query, id))
}

// GetByHandle resolves a principal by any of its unique handles within a
// role. Empty handle arguments never match.
func (r *principalRepository) GetByHandle(ctx context.Context, role domain.Role, email, mobile string) (*domain.Principal, error) {
	const query = `
        SELECT ` + principalColumns + `
        FROM principals
        WHERE role=$1 AND (($2 <> '' AND email=$2) OR ($3 <> '' AND mobile=$3))`
	return scanPrincipal(r.pool.QueryRow(ctx, query, role, email, mobile))
}

func (r *principalRepository) UpdateDetails(ctx context.Context, p *domain.Principal) error {
	const query = `
        UPDATE principals SET full_name=$1, email=$2, mobile=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.FullName,
		p.Email,
		p.Mobile,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHandle
		}
		return err
	}
	return nil
}

func (r *principalRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE principals SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *principalRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	const query = `UPDATE principals SET refresh_token=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only while it still
// equals the presented value. The conditional WHERE clause is the critical
// section of the rotate-on-use protocol: of two concurrent refreshes only
// one can match, the other observes zero affected rows.
func (r *principalRepository) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	const query = `
        UPDATE principals SET refresh_token=$1, updated_at=NOW()
        WHERE id=$2 AND refresh_token=$3`
	cmd, err := r.pool.Exec(ctx, query, next, id, current)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

func (r *principalRepository) ClearRefreshToken(ctx context.Context, id string) error {
	const query = `UPDATE principals SET refresh_token=NULL, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *principalRepository) List(ctx context.Context, role domain.Role) ([]domain.Principal, error) {
	const query = `SELECT ` + principalColumns + ` FROM principals WHERE role=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var principals []domain.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		principals = append(principals, *p)
	}
	return principals, rows.Err()
}
