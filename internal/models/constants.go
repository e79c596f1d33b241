package models

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Query-time booking state filters. CURRENT/FUTURE/PAST are projections over
// the booking interval relative to now and imply status APPROVED;
// WAITING/REJECTED filter by status alone.
const (
	StateAll      = "ALL"
	StateCurrent  = "CURRENT"
	StateFuture   = "FUTURE"
	StatePast     = "PAST"
	StateWaiting  = "WAITING"
	StateRejected = "REJECTED"
)

const (
	// DefaultPaginationSize размер страницы по умолчанию
	DefaultPaginationSize = 20

	// MaxPaginationSize верхняя граница размера страницы
	MaxPaginationSize = 100
)

// KnownState reports whether s is one of the recognized state filters.
func KnownState(s string) bool {
	switch s {
	case StateAll, StateCurrent, StateFuture, StatePast, StateWaiting, StateRejected:
		return true
	}
	return false
}
