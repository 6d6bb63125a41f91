package domain

import "time"

// SessionRecord is the durable projection of a session: enough to rebuild an
// authenticated client after a restart, but never the password itself.
type SessionRecord struct {
	ID        string    `json:"id"`
	Host      string    `json:"host"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Age returns how old the record is relative to now.
func (r SessionRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
