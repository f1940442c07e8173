package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/store"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, token_fingerprint, bearer_sealed, refresh_sealed,
			user_id, created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenFingerprint, s.BearerSealed, s.RefreshSealed,
		s.UserID, s.CreatedAt, s.UpdatedAt, s.ExpiresAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetByFingerprint(ctx context.Context, fingerprint string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token_fingerprint, bearer_sealed, refresh_sealed,
		       user_id, created_at, updated_at, expires_at
		FROM sessions
		WHERE token_fingerprint = ?`,
		fingerprint,
	)

	var s domain.Session
	err := row.Scan(
		&s.ID, &s.TokenFingerprint, &s.BearerSealed, &s.RefreshSealed,
		&s.UserID, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) UpdateCredentials(ctx context.Context, id, bearerSealed, refreshSealed string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET bearer_sealed = ?, refresh_sealed = ?, updated_at = ?
		WHERE id = ?`,
		bearerSealed, refreshSealed, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteByFingerprint(ctx context.Context, fingerprint string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token_fingerprint = ?`, fingerprint)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
