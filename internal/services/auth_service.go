package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

// AuthService owns registration, authentication (with login auditing),
// profile management and the password lifecycle.
type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
	loginLogs *LoginLogService
	mailer    Mailer
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, mailer Mailer) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
		loginLogs: NewLoginLogService(db),
		mailer:    mailer,
	}
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=30" example:"janedoe"`
	Email       string  `json:"email" validate:"required,email" example:"jane@example.com"`
	Password    string  `json:"password" validate:"required,min=8" example:"Str0ng!Pass"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=100" example:"Jane"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100" example:"Doe"`
	Sex         *string `json:"sex" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required" example:"janedoe"` // Username or email
	Password   string `json:"password" validate:"required" example:"Str0ng!Pass"`
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User  models.User `json:"user"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user with username, email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} models.User "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Username or email already taken"
// @Router /users/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := ValidatePasswordComplexity(req.Password); err != nil {
		WriteError(w, err)
		return
	}

	// Duplicate check before insert so the caller learns which field
	// collided.
	var existingUsername, existingEmail string
	err := s.db.QueryRow(`
		SELECT username, email FROM users
		WHERE username = $1 OR email = $2
		LIMIT 1`, req.Username, req.Email).Scan(&existingUsername, &existingEmail)
	if err == nil {
		if existingUsername == req.Username {
			WriteError(w, NewConflictError("Username is already taken"))
		} else {
			WriteError(w, NewConflictError("Email is already registered"))
		}
		return
	}
	if err != sql.ErrNoRows {
		WriteError(w, NewInternalError("Failed to create user", err))
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Username, err)
		WriteError(w, NewInternalError("Failed to create user", err))
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Sex:       req.Sex,
		Role:      models.RoleUser,
		Status:    models.StatusActive,
	}
	if req.DateOfBirth != nil {
		dob, err := models.ParseDate(*req.DateOfBirth)
		if err != nil {
			WriteError(w, NewValidationError(err.Error()))
			return
		}
		user.DateOfBirth = &dob
	}

	err = s.db.QueryRow(`
		INSERT INTO users (username, email, password, first_name, last_name, sex, date_of_birth, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		user.Username, user.Email, hashedPassword, user.FirstName, user.LastName,
		user.Sex, user.DateOfBirth, user.Role, user.Status,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		log.Printf("[AUTH] User creation failed for %s: %v", req.Username, err)
		WriteError(w, NewInternalError("Failed to create user", err))
		return
	}

	log.Printf("[AUTH] User created successfully - ID: %d, username: %s", user.ID, user.Username)
	SendJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with username or email plus password; every attempt is audit-logged
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Account deactivated"
// @Router /users/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	ipAddress := clientIP(r)
	userAgent := r.UserAgent()
	log.Printf("[AUTH] Login attempt from IP: %s", ipAddress)

	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var user models.User
	var hashedPassword string
	var dob sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, username, email, password, first_name, last_name, sex, date_of_birth, role, status, created_at
		FROM users
		WHERE (username = $1 OR email = $1) AND is_deleted = FALSE`,
		req.Identifier,
	).Scan(
		&user.ID, &user.Username, &user.Email, &hashedPassword, &user.FirstName,
		&user.LastName, &user.Sex, &dob, &user.Role, &user.Status, &user.CreatedAt,
	)
	user.DateOfBirth = models.NullDate(dob)
	if err == sql.ErrNoRows {
		log.Printf("[AUTH] No account for identifier: %s", req.Identifier)
		s.loginLogs.Record(nil, ipAddress, userAgent, models.LoginFailed)
		WriteError(w, NewUnauthorizedError("Invalid email/username or password"))
		return
	}
	if err != nil {
		s.loginLogs.Record(nil, ipAddress, userAgent, models.LoginFailed)
		WriteError(w, NewInternalError("Login failed", err))
		return
	}

	if user.Status == models.StatusDeactivated {
		log.Printf("[AUTH] Login rejected for deactivated user %d", user.ID)
		s.loginLogs.Record(&user.ID, ipAddress, userAgent, models.LoginFailed)
		WriteError(w, NewForbiddenError("Your account has been deactivated. Please contact admin."))
		return
	}

	if !VerifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for user %d", user.ID)
		s.loginLogs.Record(&user.ID, ipAddress, userAgent, models.LoginFailed)
		WriteError(w, NewUnauthorizedError("Invalid email/username or password"))
		return
	}

	token, err := generateJWT(user.ID, user.Role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %d: %v", user.ID, err)
		s.loginLogs.Record(&user.ID, ipAddress, userAgent, models.LoginFailed)
		WriteError(w, NewInternalError("Login failed", err))
		return
	}

	s.loginLogs.Record(&user.ID, ipAddress, userAgent, models.LoginSuccess)

	log.Printf("[AUTH] Login successful for user %d", user.ID)
	SendJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and blacklist the token until it expires
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /users/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			// Blacklist token until its expiration
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// GetProfile returns the authenticated user's account details
// @Summary Get profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/profile [get]
func (s *AuthService) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	user, err := s.fetchUser(userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, user)
}

// UpdateProfileRequest carries partial profile fields.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	Sex         *string `json:"sex" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateProfile applies a partial update to the caller's profile
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} models.User
// @Failure 409 {object} ErrorResponse "Username or email already taken"
// @Router /users/profile [patch]
func (s *AuthService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	var req UpdateProfileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Username != nil {
		var exists bool
		err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
			*req.Username, userID).Scan(&exists)
		if err != nil {
			WriteError(w, NewInternalError("Update failed", err))
			return
		}
		if exists {
			WriteError(w, NewConflictError("Username is already taken"))
			return
		}
	}

	if req.Email != nil {
		var exists bool
		err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
			*req.Email, userID).Scan(&exists)
		if err != nil {
			WriteError(w, NewInternalError("Update failed", err))
			return
		}
		if exists {
			WriteError(w, NewConflictError("Email is already registered"))
			return
		}
	}

	var sets []string
	var args []interface{}
	argIndex := 1
	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.Username != nil {
		addSet("username", *req.Username)
	}
	if req.Email != nil {
		addSet("email", *req.Email)
	}
	if req.FirstName != nil {
		addSet("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		addSet("last_name", *req.LastName)
	}
	if req.Sex != nil {
		addSet("sex", *req.Sex)
	}
	if req.DateOfBirth != nil {
		dob, err := models.ParseDate(*req.DateOfBirth)
		if err != nil {
			WriteError(w, NewValidationError(err.Error()))
			return
		}
		addSet("date_of_birth", dob)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d AND is_deleted = FALSE`,
			strings.Join(sets, ", "), argIndex)
		args = append(args, userID)
		if _, err := s.db.Exec(query, args...); err != nil {
			WriteError(w, NewInternalError("Update failed", err))
			return
		}
	}

	user, err := s.fetchUser(userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[AUTH] Profile updated for user %d", userID)
	SendJSON(w, http.StatusOK, user)
}

// UpdatePasswordRequest carries a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UpdatePassword changes the caller's password after verifying the
// current one
// @Summary Update password
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdatePasswordRequest true "Password change request"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Incorrect current password"
// @Router /users/password [patch]
func (s *AuthService) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	var req UpdatePasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := ValidatePasswordComplexity(req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}

	var hashedPassword string
	err := s.db.QueryRow(`SELECT password FROM users WHERE id = $1 AND is_deleted = FALSE`, userID).
		Scan(&hashedPassword)
	if err == sql.ErrNoRows {
		WriteError(w, NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		WriteError(w, NewInternalError("Password update failed", err))
		return
	}

	if !VerifyPassword(req.CurrentPassword, hashedPassword) {
		WriteError(w, NewValidationError("Incorrect current password"))
		return
	}

	if err := s.storePassword(userID, req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[AUTH] Password updated for user %d", userID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// ForgotPassword issues a time-boxed reset token and mails the reset link
// @Summary Request password reset
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "No user with this email"
// @Router /users/forgot-password [post]
func (s *AuthService) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var userID int
	var username string
	err := s.db.QueryRow(`SELECT id, username FROM users WHERE email = $1 AND is_deleted = FALSE`, req.Email).
		Scan(&userID, &username)
	if err == sql.ErrNoRows {
		WriteError(w, NewNotFoundError("No user found with this email"))
		return
	}
	if err != nil {
		WriteError(w, NewInternalError("Failed to process reset request", err))
		return
	}

	expiry := time.Duration(viper.GetInt("jwt.reset_expiry_minutes")) * time.Minute
	tokenID := uuid.NewString()
	token, err := generateResetToken(userID, req.Email, tokenID, expiry)
	if err != nil {
		WriteError(w, NewInternalError("Failed to process reset request", err))
		return
	}

	if s.redis != nil {
		key := fmt.Sprintf("reset:%s", tokenID)
		if err := s.redis.Set(r.Context(), key, userID, expiry).Err(); err != nil {
			log.Printf("[AUTH] Failed to store reset token marker: %v", err)
		}
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", viper.GetString("client.url"), token)
	if err := s.mailer.SendPasswordReset(req.Email, username, resetLink); err != nil {
		WriteError(w, NewInternalError("Error sending email. Please try again later.", err))
		return
	}

	log.Printf("[AUTH] Reset email sent for user %d", userID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Reset email sent successfully"})
}

// ResetPassword consumes a reset token and sets a new password
// @Summary Reset password
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{token=string,newPassword=string} true "Reset token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Invalid or expired token"
// @Router /users/reset-password [post]
func (s *AuthService) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := ValidatePasswordComplexity(req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}

	userID, tokenID, err := parseResetToken(req.Token)
	if err != nil {
		WriteError(w, NewValidationError("Invalid or expired token"))
		return
	}

	// Reset tokens are single-use when Redis is available.
	if s.redis != nil {
		key := fmt.Sprintf("reset:%s", tokenID)
		if err := s.redis.Get(r.Context(), key).Err(); err != nil {
			WriteError(w, NewValidationError("Invalid or expired token"))
			return
		}
		s.redis.Del(r.Context(), key)
	}

	var exists bool
	err = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_deleted = FALSE)`, userID).
		Scan(&exists)
	if err != nil {
		WriteError(w, NewInternalError("Password reset failed", err))
		return
	}
	if !exists {
		WriteError(w, NewValidationError("Invalid or expired token"))
		return
	}

	if err := s.storePassword(userID, req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[AUTH] Password reset for user %d", userID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// GetLoginInfo returns the caller's login history summary
// @Summary Get login info
// @Tags users
// @Produce json
// @Success 200 {object} LoginInfo
// @Router /users/profile/login-info [get]
func (s *AuthService) GetLoginInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	info, err := s.loginLogs.UserLoginInfo(userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, info)
}

// DeleteAccount soft-deletes the caller's account and deactivates it
// @Summary Delete account
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/account [delete]
func (s *AuthService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	res, err := s.db.Exec(`
		UPDATE users SET is_deleted = TRUE, status = 'DEACTIVATED', updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`, userID)
	if err != nil {
		WriteError(w, NewInternalError("Account deletion failed", err))
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		WriteError(w, NewNotFoundError("User not found"))
		return
	}

	log.Printf("[AUTH] Account soft-deleted for user %d", userID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

func (s *AuthService) fetchUser(userID int) (*models.User, error) {
	var user models.User
	var dob sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, username, email, first_name, last_name, sex, date_of_birth, role, status, created_at
		FROM users
		WHERE id = $1 AND is_deleted = FALSE`, userID,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.Sex, &dob, &user.Role, &user.Status, &user.CreatedAt,
	)
	user.DateOfBirth = models.NullDate(dob)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, NewInternalError("Unable to fetch user details", err)
	}
	return &user, nil
}

func (s *AuthService) storePassword(userID int, password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return NewInternalError("Password update failed", err)
	}
	if _, err := s.db.Exec(`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`,
		hashedPassword, userID); err != nil {
		return NewInternalError("Password update failed", err)
	}
	return nil
}

// decodeJSONBody decodes a single JSON object of at most 1MB, writing a
// 400 response and returning false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func generateJWT(userID int, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func generateResetToken(userID int, email, tokenID string, expiry time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"jti":     tokenID,
		"purpose": "password_reset",
		"exp":     time.Now().Add(expiry).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func parseResetToken(tokenString string) (int, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("invalid reset token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != "password_reset" {
		return 0, "", fmt.Errorf("invalid reset token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid reset token")
	}

	tokenID, _ := claims["jti"].(string)
	return int(userID), tokenID, nil
}

// HashPassword derives an argon2id hash in salt$hash form. Exported so
// startup seeding can hash the bootstrap admin credential.
func HashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks a password against a stored salt$hash value.
func VerifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
