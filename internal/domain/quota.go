package domain

import "strings"

type Role string

const (
	RoleFree  Role = "free"
	RolePro   Role = "pro"
	RoleAdmin Role = "admin"
)

// Normalized trims and lower-cases r, the form role limits are keyed by.
func (r Role) Normalized() Role { return Role(strings.ToLower(strings.TrimSpace(string(r)))) }

// Unlimited marks a role without a daily budget.
const Unlimited = -1

// QuotaRecord is a user's upstream call counter. CallsMadeToday only counts when
// LastCallDate is today; any other date is an implicit zero.
type QuotaRecord struct {
	UserID         string
	CallsMadeToday int
	LastCallDate   Date
	Role           Role
}

// CallsOn returns the effective call count for the given day.
func (r QuotaRecord) CallsOn(today Date) int {
	if !r.LastCallDate.Equal(today.Time) {
		return 0
	}
	return r.CallsMadeToday
}

// RoleLimitTable maps a role to its daily upstream call limit.
type RoleLimitTable map[Role]int

// Limit returns the limit for role. Unknown roles get 0.
func (t RoleLimitTable) Limit(role Role) int {
	l, ok := t[role.Normalized()]
	if !ok {
		return 0
	}
	return l
}

func DefaultRoleLimits() RoleLimitTable {
	return RoleLimitTable{
		RoleFree:  10,
		RolePro:   250,
		RoleAdmin: Unlimited,
	}
}

// QuotaStatus is the read model shown to users.
type QuotaStatus struct {
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// Incremented returns the record after one more call on today. A stale date restarts at 1.
func (r QuotaRecord) Incremented(today Date) QuotaRecord {
	r.CallsMadeToday = r.CallsOn(today) + 1
	r.LastCallDate = today
	return r
}
