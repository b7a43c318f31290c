package store

import "time"

// RetentionPolicy bounds how much conversation memory is kept per user.
// Pruning runs synchronously after each write and is scoped to the writing
// user, so it needs no cross-user coordination.
type RetentionPolicy struct {
	MaxPerUser int           // newest N conversations kept; 0 disables the count cap
	Window     time.Duration // conversations older than this are dropped; 0 disables
}

// DefaultRetentionPolicy keeps at most 10 conversations per user for 7 days.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxPerUser: 10,
		Window:     7 * 24 * time.Hour,
	}
}

// HasRules reports whether pruning would ever delete anything.
func (p RetentionPolicy) HasRules() bool {
	return p.MaxPerUser > 0 || p.Window > 0
}

// Cutoff returns the oldest creation time still retained, and whether a
// window rule applies.
func (p RetentionPolicy) Cutoff(now time.Time) (time.Time, bool) {
	if p.Window <= 0 {
		return time.Time{}, false
	}
	return now.Add(-p.Window), true
}
