package services

import (
	"database/sql"
	"log"

	"github.com/fintrack/backend/internal/models"
)

// LoginLogService appends to the login audit trail and reads it back for
// the profile login-info view. Rows are never updated or deleted.
type LoginLogService struct {
	db *sql.DB
}

func NewLoginLogService(db *sql.DB) *LoginLogService {
	return &LoginLogService{db: db}
}

// Record writes one audit row for an authentication attempt. userID is
// nil when the identifier matched no account. Logging is best-effort:
// callers log the returned error and continue.
func (s *LoginLogService) Record(userID *int, ipAddress, userAgent, status string) error {
	_, err := s.db.Exec(`
		INSERT INTO login_logs (user_id, ip_address, user_agent, status)
		VALUES ($1, $2, $3, $4)`,
		userID, ipAddress, userAgent, status)
	if err != nil {
		log.Printf("[AUTH] Failed to record login log: %v", err)
	}
	return err
}

// LoginInfo summarizes a user's authentication history.
type LoginInfo struct {
	SuccessCount        int              `json:"success_count"`
	FailedCount         int              `json:"failed_count"`
	LastSuccessfulLogin *models.LoginLog `json:"last_successful_login"`
	LastFailedLogin     *models.LoginLog `json:"last_failed_login"`
}

// UserLoginInfo returns attempt counts and the most recent attempt of
// each outcome for one user.
func (s *LoginLogService) UserLoginInfo(userID int) (*LoginInfo, error) {
	info := &LoginInfo{}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'SUCCESS'),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM login_logs
		WHERE user_id = $1`, userID).Scan(&info.SuccessCount, &info.FailedCount)
	if err != nil {
		return nil, NewInternalError("Unable to fetch login information", err)
	}

	info.LastSuccessfulLogin, err = s.lastAttempt(userID, models.LoginSuccess)
	if err != nil {
		return nil, err
	}

	info.LastFailedLogin, err = s.lastAttempt(userID, models.LoginFailed)
	if err != nil {
		return nil, err
	}

	return info, nil
}

func (s *LoginLogService) lastAttempt(userID int, status string) (*models.LoginLog, error) {
	var entry models.LoginLog
	err := s.db.QueryRow(`
		SELECT id, login_at, ip_address, user_agent
		FROM login_logs
		WHERE user_id = $1 AND status = $2
		ORDER BY login_at DESC
		LIMIT 1`, userID, status).Scan(&entry.ID, &entry.LoginAt, &entry.IPAddress, &entry.UserAgent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewInternalError("Unable to fetch login information", err)
	}
	entry.Status = status
	return &entry, nil
}
