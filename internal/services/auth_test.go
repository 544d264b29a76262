package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
	viper.Set("jwt.reset_expiry_minutes", 15)
	viper.Set("client.url", "http://localhost:3000")
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	redisClient, _ := redismock.NewClientMock()
	service := NewAuthService(db, redisClient, &MockMailer{})

	t.Run("successful registration", func(t *testing.T) {
		mock.ExpectQuery("SELECT username, email FROM users").
			WithArgs("janedoe", "jane@example.com").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(1, time.Now()))

		body := []byte(`{"username": "janedoe", "email": "jane@example.com", "password": "Str0ng!Pass"}`)
		r := httptest.NewRequest("POST", "/users/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response map[string]json.RawMessage
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Contains(t, response, "user")
	})

	t.Run("duplicate username reports conflict", func(t *testing.T) {
		mock.ExpectQuery("SELECT username, email FROM users").
			WithArgs("janedoe", "other@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"username", "email"}).
				AddRow("janedoe", "jane@example.com"))

		body := []byte(`{"username": "janedoe", "email": "other@example.com", "password": "Str0ng!Pass"}`)
		r := httptest.NewRequest("POST", "/users/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		body := []byte(`{"username": "janedoe", "email": "jane@example.com", "password": "alllowercase1"}`)
		r := httptest.NewRequest("POST", "/users/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/users/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	redisClient, _ := redismock.NewClientMock()
	service := NewAuthService(db, redisClient, &MockMailer{})

	userColumns := []string{"id", "username", "email", "password", "first_name",
		"last_name", "sex", "date_of_birth", "role", "status", "created_at"}

	t.Run("successful login issues a token and audits success", func(t *testing.T) {
		hashedPassword, _ := HashPassword("Str0ng!Pass")

		mock.ExpectQuery("SELECT id, username, email, password").
			WithArgs("janedoe").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "janedoe", "jane@example.com", hashedPassword,
					nil, nil, nil, nil, "USER", "ACTIVE", time.Now()))
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg(), "SUCCESS").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := []byte(`{"identifier": "janedoe", "password": "Str0ng!Pass"}`)
		r := httptest.NewRequest("POST", "/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "janedoe", response.User.Username)
	})

	t.Run("unknown identifier audits failure with no user", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email, password").
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(nil, sqlmock.AnyArg(), sqlmock.AnyArg(), "FAILED").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := []byte(`{"identifier": "ghost@example.com", "password": "whatever1!"}`)
		r := httptest.NewRequest("POST", "/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated account never receives a token", func(t *testing.T) {
		hashedPassword, _ := HashPassword("Str0ng!Pass")

		mock.ExpectQuery("SELECT id, username, email, password").
			WithArgs("janedoe").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "janedoe", "jane@example.com", hashedPassword,
					nil, nil, nil, nil, "USER", "DEACTIVATED", time.Now()))
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg(), "FAILED").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := []byte(`{"identifier": "janedoe", "password": "Str0ng!Pass"}`)
		r := httptest.NewRequest("POST", "/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "token")
	})

	t.Run("wrong password audits failure against the user", func(t *testing.T) {
		hashedPassword, _ := HashPassword("Str0ng!Pass")

		mock.ExpectQuery("SELECT id, username, email, password").
			WithArgs("janedoe").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "janedoe", "jane@example.com", hashedPassword,
					nil, nil, nil, nil, "USER", "ACTIVE", time.Now()))
		mock.ExpectExec("INSERT INTO login_logs").
			WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg(), "FAILED").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := []byte(`{"identifier": "janedoe", "password": "Wr0ng!Pass"}`)
		r := httptest.NewRequest("POST", "/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_ForgotPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	t.Run("sends a reset email to a known account", func(t *testing.T) {
		mailer := &MockMailer{}
		mailer.On("SendPasswordReset", "jane@example.com", "janedoe", anyArg).Return(nil)

		service := NewAuthService(db, nil, mailer)

		mock.ExpectQuery("SELECT id, username FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "janedoe"))

		body := []byte(`{"email": "jane@example.com"}`)
		r := httptest.NewRequest("POST", "/users/forgot-password", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.ForgotPassword(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		mailer.AssertExpectations(t)
	})

	t.Run("unknown email reports not found", func(t *testing.T) {
		service := NewAuthService(db, nil, &MockMailer{})

		mock.ExpectQuery("SELECT id, username FROM users").
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		body := []byte(`{"email": "ghost@example.com"}`)
		r := httptest.NewRequest("POST", "/users/forgot-password", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.ForgotPassword(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("mailer failure reports a retryable error", func(t *testing.T) {
		mailer := &MockMailer{}
		mailer.On("SendPasswordReset", "jane@example.com", "janedoe", anyArg).
			Return(assert.AnError)

		service := NewAuthService(db, nil, mailer)

		mock.ExpectQuery("SELECT id, username FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "janedoe"))

		body := []byte(`{"email": "jane@example.com"}`)
		r := httptest.NewRequest("POST", "/users/forgot-password", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.ForgotPassword(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Error sending email")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_DeleteAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAuthService(db, nil, &MockMailer{})

	t.Run("soft-deletes the account", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET is_deleted = TRUE").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		r := authedRequest("DELETE", "/users/account", nil, 1)
		w := httptest.NewRecorder()

		service.DeleteAccount(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already-deleted account reports not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET is_deleted = TRUE").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := authedRequest("DELETE", "/users/account", nil, 1)
		w := httptest.NewRecorder()

		service.DeleteAccount(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	t.Run("hash verifies against the original password", func(t *testing.T) {
		hash, err := HashPassword("Str0ng!Pass")
		assert.NoError(t, err)
		assert.True(t, VerifyPassword("Str0ng!Pass", hash))
		assert.False(t, VerifyPassword("Wr0ng!Pass", hash))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, _ := HashPassword("Str0ng!Pass")
		second, _ := HashPassword("Str0ng!Pass")
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed stored hash never verifies", func(t *testing.T) {
		assert.False(t, VerifyPassword("Str0ng!Pass", "not-a-hash"))
	})
}

func TestGenerateJWT(t *testing.T) {
	setupAuthConfig()

	token, err := generateJWT(42, "ADMIN")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}
