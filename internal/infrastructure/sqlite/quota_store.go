package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
)

type QuotaStore struct{ db *DB }

var _ application.QuotaStore = (*QuotaStore)(nil)

func NewQuotaStore(db *DB) *QuotaStore { return &QuotaStore{db: db} }

func scanQuota(row *sql.Row) (domain.QuotaRecord, error) {
	var (
		out        domain.QuotaRecord
		role, last string
	)
	if err := row.Scan(&out.UserID, &role, &out.CallsMadeToday, &last); err != nil {
		return domain.QuotaRecord{}, err
	}
	out.Role = domain.Role(role)
	if last != "" {
		d, err := domain.ParseDate(last)
		if err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("quota %s: %w", out.UserID, err)
		}
		out.LastCallDate = d
	}
	return out, nil
}

func (s *QuotaStore) Get(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	out, err := scanQuota(s.db.SQL.QueryRowContext(ctx,
		`SELECT user_id, role, calls_made_today, last_call_date FROM user_quotas WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	return out, err
}

func (s *QuotaStore) Increment(ctx context.Context, userID string, today domain.Date) (domain.QuotaRecord, error) {
	day := today.String()
	out, err := scanQuota(s.db.SQL.QueryRowContext(ctx, `
		UPDATE user_quotas
		SET calls_made_today = CASE WHEN last_call_date = ? THEN calls_made_today + 1 ELSE 1 END,
		    last_call_date = ?
		WHERE user_id = ?
		RETURNING user_id, role, calls_made_today, last_call_date`,
		day, day, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	return out, err
}

func (s *QuotaStore) SetRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := s.db.SQL.ExecContext(ctx, `
		INSERT INTO user_quotas(user_id, role) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET role = excluded.role`,
		userID, string(role))
	return err
}
