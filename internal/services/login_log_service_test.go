package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fintrack/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLoginLogService_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLoginLogService(db)

	t.Run("records an attempt with no matched user", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(nil, "203.0.113.9", "curl/8.0", "FAILED").
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, service.Record(nil, "203.0.113.9", "curl/8.0", models.LoginFailed))
	})

	t.Run("records a successful attempt against the user", func(t *testing.T) {
		userID := 7
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(7, "203.0.113.9", "curl/8.0", "SUCCESS").
			WillReturnResult(sqlmock.NewResult(2, 1))

		assert.NoError(t, service.Record(&userID, "203.0.113.9", "curl/8.0", models.LoginSuccess))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginLogService_UserLoginInfo(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLoginLogService(db)

	t.Run("summarizes counts and last attempts", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"success", "failed"}).AddRow(5, 2))
		mock.ExpectQuery("SELECT id, login_at, ip_address, user_agent").
			WithArgs(7, "SUCCESS").
			WillReturnRows(sqlmock.NewRows([]string{"id", "login_at", "ip_address", "user_agent"}).
				AddRow(21, now, "203.0.113.9", "curl/8.0"))
		mock.ExpectQuery("SELECT id, login_at, ip_address, user_agent").
			WithArgs(7, "FAILED").
			WillReturnError(sql.ErrNoRows)

		info, err := service.UserLoginInfo(7)

		assert.NoError(t, err)
		assert.Equal(t, 5, info.SuccessCount)
		assert.Equal(t, 2, info.FailedCount)
		assert.NotNil(t, info.LastSuccessfulLogin)
		assert.Equal(t, "SUCCESS", info.LastSuccessfulLogin.Status)
		assert.Nil(t, info.LastFailedLogin)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
