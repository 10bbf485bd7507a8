package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	quotaPrefix   = "quota:"
	fieldRole     = "role"
	fieldCalls    = "calls"
	fieldLastDate = "last_date"
)

// incrementScript bumps the counter, restarting it when the stored day differs from ARGV[1].
// Missing users yield a nil reply.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return nil
end
local calls
if redis.call('HGET', KEYS[1], 'last_date') == ARGV[1] then
  calls = redis.call('HINCRBY', KEYS[1], 'calls', 1)
else
  redis.call('HSET', KEYS[1], 'calls', 1, 'last_date', ARGV[1])
  calls = 1
end
return {calls, redis.call('HGET', KEYS[1], 'role') or ''}
`)

type QuotaStore struct {
	Client *redis.Client
}

var _ application.QuotaStore = (*QuotaStore)(nil)

func NewQuotaStore(client *redis.Client) *QuotaStore {
	return &QuotaStore{Client: client}
}

func (s *QuotaStore) Get(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	vals, err := s.Client.HGetAll(ctx, quotaPrefix+userID).Result()
	if err != nil {
		return domain.QuotaRecord{}, err
	}
	if len(vals) == 0 {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	out := domain.QuotaRecord{UserID: userID, Role: domain.Role(vals[fieldRole])}
	if v := vals[fieldCalls]; v != "" {
		if out.CallsMadeToday, err = strconv.Atoi(v); err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("quota %s: bad calls: %w", userID, err)
		}
	}
	if v := vals[fieldLastDate]; v != "" {
		if out.LastCallDate, err = domain.ParseDate(v); err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("quota %s: %w", userID, err)
		}
	}
	return out, nil
}

func (s *QuotaStore) Increment(ctx context.Context, userID string, today domain.Date) (domain.QuotaRecord, error) {
	res, err := incrementScript.Run(ctx, s.Client, []string{quotaPrefix + userID}, today.String()).Slice()
	if errors.Is(err, redis.Nil) {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	if err != nil {
		return domain.QuotaRecord{}, err
	}
	if len(res) != 2 {
		return domain.QuotaRecord{}, fmt.Errorf("quota %s: unexpected script reply %v", userID, res)
	}
	calls, _ := res[0].(int64)
	role, _ := res[1].(string)
	return domain.QuotaRecord{
		UserID:         userID,
		CallsMadeToday: int(calls),
		LastCallDate:   today,
		Role:           domain.Role(role),
	}, nil
}

func (s *QuotaStore) SetRole(ctx context.Context, userID string, role domain.Role) error {
	return s.Client.HSet(ctx, quotaPrefix+userID, fieldRole, string(role)).Err()
}
