package domain

import (
	"fmt"
	"time"
)

type Tier string

const (
	TierFresh    Tier = "fresh"
	TierDegraded Tier = "degraded"
	TierExpired  Tier = "expired"
)

type NoticeKind string

const (
	NoticeTrustedCache   NoticeKind = "trusted_cache"
	NoticeQuotaExhausted NoticeKind = "quota_exhausted"
	NoticeRefreshFailed  NoticeKind = "refresh_failed"
)

// Notice flags a successful result that is served from stale cache.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	AsOf    time.Time  `json:"as_of"`
}

func NewNotice(kind NoticeKind, asOf time.Time) *Notice {
	ts := asOf.UTC().Format(time.RFC3339)
	var msg string
	switch kind {
	case NoticeTrustedCache:
		msg = fmt.Sprintf("showing cached data as of %s", ts)
	case NoticeQuotaExhausted:
		msg = fmt.Sprintf("quota exhausted, showing last-known data from %s", ts)
	default:
		msg = fmt.Sprintf("could not refresh, showing data from %s", ts)
	}
	return &Notice{Kind: kind, Message: msg, AsOf: asOf.UTC()}
}
