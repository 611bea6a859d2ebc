package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobboard/auth-service/internal/dbx"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over the refresh_token table.
// The unique index on user_id is the final backstop for the
// one-active-token-per-user invariant; inserts racing a concurrent login
// surface as ErrConflict.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *RefreshToken) error {
	return create(ctx, r.db, t)
}

func create(ctx context.Context, db dbx.DBTX, t *RefreshToken) error {
	query := `
		INSERT INTO refresh_token (id, user_id, remember_me, validity_timestamp)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := db.ExecContext(ctx, query, t.ID, t.UserID, t.RememberMe, t.ExpiresAt.Unix()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, remember_me, validity_timestamp, created_at
		FROM refresh_token
		WHERE user_id = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, remember_me, validity_timestamp, created_at
		FROM refresh_token
		WHERE id = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, id)
}

func deleteByID(ctx context.Context, db dbx.DBTX, id string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM refresh_token WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Rotate wraps the delete+insert pair in one transaction so a crash between
// the two statements cannot leave the user without any token row.
func (r *PostgresRepository) Rotate(ctx context.Context, staleID string, t *RefreshToken) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if staleID != "" {
			if _, err := deleteByID(ctx, tx, staleID); err != nil {
				return err
			}
		}
		return create(ctx, tx, t)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*RefreshToken, error) {
	t := &RefreshToken{}
	var validity int64
	if err := row.Scan(&t.ID, &t.UserID, &t.RememberMe, &validity, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.ExpiresAt = timeFromUnix(validity)
	return t, nil
}
