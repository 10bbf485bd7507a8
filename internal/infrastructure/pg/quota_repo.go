package pg

import (
	"context"
	"errors"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

type QuotaRepo struct{ db *DB }

var _ application.QuotaStore = (*QuotaRepo)(nil)

func NewQuotaRepo(db *DB) *QuotaRepo { return &QuotaRepo{db: db} }

func scanQuota(row pgx.Row) (domain.QuotaRecord, error) {
	var (
		out  domain.QuotaRecord
		role string
		last *time.Time
	)
	if err := row.Scan(&out.UserID, &role, &out.CallsMadeToday, &last); err != nil {
		return domain.QuotaRecord{}, err
	}
	out.Role = domain.Role(role)
	if last != nil {
		out.LastCallDate = domain.DateOf(*last)
	}
	return out, nil
}

func (r *QuotaRepo) Get(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	const q = `SELECT user_id, role, calls_made_today, last_call_date FROM user_quotas WHERE user_id=$1`
	log := logx.L().With(
		zap.String("repo", "quota"),
		zap.String("operation", "Get"),
		zap.String("user_id", userID),
	)
	out, err := scanQuota(r.db.Pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.QuotaRecord{}, err
	}
	return out, nil
}

// Increment resets and bumps the counter in one statement, so concurrent refreshes never
// lose an update.
func (r *QuotaRepo) Increment(ctx context.Context, userID string, today domain.Date) (domain.QuotaRecord, error) {
	const up = `
        UPDATE user_quotas
        SET calls_made_today = CASE WHEN last_call_date = $2::date THEN calls_made_today + 1 ELSE 1 END,
            last_call_date   = $2::date
        WHERE user_id=$1
        RETURNING user_id, role, calls_made_today, last_call_date`
	log := logx.L().With(
		zap.String("repo", "quota"),
		zap.String("operation", "Increment"),
		zap.String("user_id", userID),
		zap.String("today", today.String()),
	)
	log.Info("sql.exec_start")
	out, err := scanQuota(r.db.Pool.QueryRow(ctx, up, userID, today.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warn("sql.exec_no_rows")
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return domain.QuotaRecord{}, err
	}
	log.Info("sql.exec_success", zap.Int("calls_made_today", out.CallsMadeToday))
	return out, nil
}

// SetRole inserts a fresh user and falls back to updating the role when the user exists.
func (r *QuotaRepo) SetRole(ctx context.Context, userID string, role domain.Role) error {
	const ins = `INSERT INTO user_quotas(user_id, role) VALUES ($1, $2)`
	const up = `UPDATE user_quotas SET role=$2 WHERE user_id=$1`
	log := logx.L().With(
		zap.String("repo", "quota"),
		zap.String("operation", "SetRole"),
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)
	log.Info("sql.exec_start")
	_, err := r.db.Pool.Exec(ctx, ins, userID, string(role))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		log.Info("sql.exec_conflict_update")
		_, err = r.db.Pool.Exec(ctx, up, userID, string(role))
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Info("sql.exec_success")
	return nil
}
