package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestAdminService_ListUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAdminService(db)

	t.Run("returns a paginated user listing", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "first_name", "last_name", "sex",
				"date_of_birth", "role", "status", "created_at",
			}).AddRow(1, "janedoe", "jane@example.com", nil, nil, nil, nil, "USER", "ACTIVE", time.Now()))

		r := authedRequest("GET", "/admin/users", nil, 99)
		w := httptest.NewRecorder()

		service.ListUsers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("search narrows across name fields", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("%jane%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs("%jane%", 10, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "first_name", "last_name", "sex",
				"date_of_birth", "role", "status", "created_at",
			}).AddRow(1, "janedoe", "jane@example.com", nil, nil, nil, nil, "USER", "ACTIVE", time.Now()))

		r := authedRequest("GET", "/admin/users?search=jane", nil, 99)
		w := httptest.NewRecorder()

		service.ListUsers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a non-numeric page", func(t *testing.T) {
		r := authedRequest("GET", "/admin/users?page=abc", nil, 99)
		w := httptest.NewRecorder()

		service.ListUsers(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_UpdateUserStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAdminService(db)
	router := chi.NewRouter()
	router.Patch("/admin/users/{id}/status", service.UpdateUserStatus)

	t.Run("admins cannot change their own status", func(t *testing.T) {
		body := []byte(`{"status": "DEACTIVATED"}`)
		r := authedRequest("PATCH", "/admin/users/99/status", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "your own account")
	})

	t.Run("deactivates another user", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET status").
			WithArgs("DEACTIVATED", 2).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "first_name", "last_name", "sex",
				"date_of_birth", "role", "status", "created_at",
			}).AddRow(2, "johndoe", "john@example.com", nil, nil, nil, nil, "USER", "DEACTIVATED", time.Now()))

		body := []byte(`{"status": "DEACTIVATED"}`)
		r := authedRequest("PATCH", "/admin/users/2/status", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "DEACTIVATED")
	})

	t.Run("rejects an unknown status value", func(t *testing.T) {
		body := []byte(`{"status": "SUSPENDED"}`)
		r := authedRequest("PATCH", "/admin/users/2/status", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_ResetUserPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)

	service := NewAdminService(db)
	router := chi.NewRouter()
	router.Patch("/admin/users/{id}/reset-password", service.ResetUserPassword)

	t.Run("sets a new password on the account", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := []byte(`{"newPassword": "N3w!Passw0rd"}`)
		r := authedRequest("PATCH", "/admin/users/2/reset-password", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing user reports not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password").
			WillReturnResult(sqlmock.NewResult(0, 0))

		body := []byte(`{"newPassword": "N3w!Passw0rd"}`)
		r := authedRequest("PATCH", "/admin/users/404/reset-password", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("weak password rejected before touching the database", func(t *testing.T) {
		body := []byte(`{"newPassword": "weakpassword"}`)
		r := authedRequest("PATCH", "/admin/users/2/reset-password", body, 99)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_OverviewReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAdminService(db)

	t.Run("both dates are required", func(t *testing.T) {
		r := authedRequest("GET", "/admin/overview-report?startDate=2025-01-01", nil, 99)
		w := httptest.NewRecorder()

		service.OverviewReport(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		r := authedRequest("GET", "/admin/overview-report?startDate=bad&endDate=2025-01-31", nil, 99)
		w := httptest.NewRecorder()

		service.OverviewReport(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("builds the report for a valid window", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("FROM transactions").
			WillReturnRows(sqlmock.NewRows([]string{"income", "expenses", "count"}).
				AddRow("0", "0", 0))
		mock.ExpectQuery("FROM login_logs").
			WillReturnRows(sqlmock.NewRows([]string{"total", "success", "failed", "unique"}).
				AddRow(0, 0, 0, 0))
		mock.ExpectQuery("SELECT c.name, SUM").
			WillReturnRows(sqlmock.NewRows([]string{"name", "total_amount"}))

		r := authedRequest("GET", "/admin/overview-report?startDate=2025-01-01&endDate=2025-01-31", nil, 99)
		w := httptest.NewRecorder()

		service.OverviewReport(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "userActivity")
		assert.Contains(t, w.Body.String(), "topCategoriesSystemWide")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
