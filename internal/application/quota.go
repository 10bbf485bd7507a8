package application

import (
	"context"
	"fmt"

	"assetsync-service/internal/domain"

	"go.uber.org/zap"
)

// QuotaLedger enforces the per-user daily upstream call budget.
type QuotaLedger struct {
	store  QuotaStore
	limits domain.RoleLimitTable
	deps
}

func NewQuotaLedger(store QuotaStore, limits domain.RoleLimitTable, opts ...Option) *QuotaLedger {
	return &QuotaLedger{store: store, limits: limits, deps: newDeps(opts)}
}

func (l *QuotaLedger) today() domain.Date { return domain.DateOf(l.clock.Now()) }

// CheckAvailability reports whether the user may make another upstream refresh today.
// It fails closed when the record cannot be loaded.
func (l *QuotaLedger) CheckAvailability(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		l.log.Warn("quota.load_failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	limit := l.limits.Limit(rec.Role)
	if limit < 0 {
		return true
	}
	return rec.CallsOn(l.today()) < limit
}

// Increment records one upstream refresh. Call it only after a refresh succeeded.
func (l *QuotaLedger) Increment(ctx context.Context, userID string) error {
	if _, err := l.store.Increment(ctx, userID, l.today()); err != nil {
		return fmt.Errorf("quota increment %s: %w", userID, err)
	}
	return nil
}

func (l *QuotaLedger) Status(ctx context.Context, userID string) (domain.QuotaStatus, error) {
	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("quota status %s: %w", userID, err)
	}
	st := domain.QuotaStatus{
		UserID: userID,
		Role:   rec.Role,
		Limit:  l.limits.Limit(rec.Role),
		Used:   rec.CallsOn(l.today()),
	}
	if st.Limit < 0 {
		st.Unlimited = true
		return st, nil
	}
	st.Remaining = max(st.Limit-st.Used, 0)
	return st, nil
}

func (l *QuotaLedger) SetRole(ctx context.Context, userID string, role domain.Role) error {
	if userID == "" {
		return fmt.Errorf("user id required: %w", ErrBadRequest)
	}
	role = role.Normalized()
	if _, ok := l.limits[role]; !ok {
		return fmt.Errorf("unknown role %q: %w", role, ErrBadRequest)
	}
	return l.store.SetRole(ctx, userID, role)
}
