package models

import "time"

// Login attempt outcomes
const (
	LoginSuccess = "SUCCESS"
	LoginFailed  = "FAILED"
)

// LoginLog is one authentication attempt. UserID is nil when the
// attempted identifier matched no account. Rows are append-only.
type LoginLog struct {
	ID        int       `json:"id"`
	UserID    *int      `json:"user_id,omitempty"`
	LoginAt   time.Time `json:"login_at"`
	IPAddress *string   `json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
	Status    string    `json:"status"`
}
