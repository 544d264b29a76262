package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/fintrack/backend/internal/models"
	"github.com/go-chi/chi/v5"
)

// AdminService exposes the administrator HTTP surface: user management,
// cross-user transaction listing and the overview report.
type AdminService struct {
	db        *sql.DB
	store     *TransactionStore
	reports   *AggregationService
	loginLogs *LoginLogService
	validator *ValidationHelper
}

func NewAdminService(db *sql.DB) *AdminService {
	return &AdminService{
		db:        db,
		store:     NewTransactionStore(db, NewCategoryService(db)),
		reports:   NewAggregationService(db),
		loginLogs: NewLoginLogService(db),
		validator: NewValidationHelper(),
	}
}

// UserListResult is one page of users plus pagination totals.
type UserListResult struct {
	Users       []models.User `json:"users"`
	TotalItems  int           `json:"totalItems"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// ListUsers returns a searchable, paginated listing of all accounts
// @Summary List users
// @Tags admin
// @Produce json
// @Param search query string false "Search username, email and names"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} UserListResult
// @Security BearerAuth
// @Router /admin/users [get]
func (s *AdminService) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := defaultPage
	if raw := q.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			WriteError(w, NewValidationError("Page must be a positive integer"))
			return
		}
		page = p
	}

	pageSize := defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 {
			WriteError(w, NewValidationError("Limit must be a positive integer"))
			return
		}
		pageSize = l
	}

	where := "is_deleted = FALSE"
	args := []interface{}{}
	argIndex := 1

	if search := q.Get("search"); search != "" {
		where += " AND (username ILIKE $1 OR email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)"
		args = append(args, "%"+search+"%")
		argIndex++
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		WriteError(w, NewInternalError("Failed to fetch users", err))
		return
	}

	query := `
		SELECT id, username, email, first_name, last_name, sex, date_of_birth, role, status, created_at
		FROM users
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(argIndex) + ` OFFSET $` + strconv.Itoa(argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		WriteError(w, NewInternalError("Failed to fetch users", err))
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var dob sql.NullTime
		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.Sex, &dob, &u.Role, &u.Status, &u.CreatedAt)
		u.DateOfBirth = models.NullDate(dob)
		if err != nil {
			WriteError(w, NewInternalError("Failed to fetch users", err))
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		WriteError(w, NewInternalError("Failed to fetch users", err))
		return
	}

	SendJSON(w, http.StatusOK, UserListResult{
		Users:       users,
		TotalItems:  total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
	})
}

// GetUser returns one account with its login history summary
// @Summary Get user
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (s *AdminService) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid user ID"))
		return
	}

	var user models.User
	var dob sql.NullTime
	err = s.db.QueryRow(`
		SELECT id, username, email, first_name, last_name, sex, date_of_birth, role, status, created_at
		FROM users
		WHERE id = $1 AND is_deleted = FALSE`, id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.Sex, &dob, &user.Role, &user.Status, &user.CreatedAt)
	user.DateOfBirth = models.NullDate(dob)
	if err == sql.ErrNoRows {
		WriteError(w, NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		WriteError(w, NewInternalError("Failed to fetch user", err))
		return
	}

	loginInfo, err := s.loginLogs.UserLoginInfo(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"loginInfo": loginInfo,
	})
}

// UpdateUserStatusRequest carries an account status change.
type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE DEACTIVATED"`
}

// UpdateUserStatus activates or deactivates an account. Admins cannot
// change their own status
// @Summary Update user status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserStatusRequest true "New status"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse "Cannot change own status"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/status [patch]
func (s *AdminService) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid user ID"))
		return
	}

	if id == adminID {
		WriteError(w, NewForbiddenError("You cannot deactivate or activate your own account."))
		return
	}

	var req UpdateUserStatusRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var user models.User
	var dob sql.NullTime
	err = s.db.QueryRow(`
		UPDATE users SET status = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE
		RETURNING id, username, email, first_name, last_name, sex, date_of_birth, role, status, created_at`,
		req.Status, id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.Sex, &dob, &user.Role, &user.Status, &user.CreatedAt)
	user.DateOfBirth = models.NullDate(dob)
	if err == sql.ErrNoRows {
		WriteError(w, NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		WriteError(w, NewInternalError("Failed to update user status", err))
		return
	}

	log.Printf("[ADMIN] User %d status set to %s by admin %d", id, req.Status, adminID)
	SendJSON(w, http.StatusOK, user)
}

// AdminResetPasswordRequest carries an administrative password reset.
type AdminResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetUserPassword sets a new password on a user's account
// @Summary Reset user password
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body AdminResetPasswordRequest true "New password"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/reset-password [patch]
func (s *AdminService) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	adminID, _ := userIDFromContext(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid user ID"))
		return
	}

	var req AdminResetPasswordRequest
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

	hashedPassword, err := HashPassword(req.NewPassword)
	if err != nil {
		WriteError(w, NewInternalError("Password reset failed", err))
		return
	}

	res, err := s.db.Exec(`
		UPDATE users SET password = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE`, hashedPassword, id)
	if err != nil {
		WriteError(w, NewInternalError("Password reset failed", err))
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		WriteError(w, NewNotFoundError("User not found"))
		return
	}

	log.Printf("[ADMIN] Password reset for user %d by admin %d", id, adminID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// ListAllTransactions lists transactions across every user
// @Summary List all transactions
// @Tags admin
// @Produce json
// @Param type query string false "Filter by type (income or expense)"
// @Param category query string false "Filter by category name substring"
// @Param username query string false "Filter by owner username substring"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Param search query string false "Search description, category, username and email"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} ListResult
// @Security BearerAuth
// @Router /admin/transactions [get]
func (s *AdminService) ListAllTransactions(w http.ResponseWriter, r *http.Request) {
	base, err := parseTransactionFilter(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	filter := AdminTransactionFilter{
		TransactionFilter: base,
		Username:          r.URL.Query().Get("username"),
	}

	result, err := s.store.ListForAdmin(filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, result)
}

// OverviewReport builds the cross-system report for a required date
// window
// @Summary Overview report
// @Tags admin
// @Produce json
// @Param startDate query string true "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string true "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} AdminOverview
// @Failure 400 {object} ErrorResponse "Missing or invalid dates"
// @Security BearerAuth
// @Router /admin/overview-report [get]
func (s *AdminService) OverviewReport(w http.ResponseWriter, r *http.Request) {
	rawStart := r.URL.Query().Get("startDate")
	rawEnd := r.URL.Query().Get("endDate")
	if rawStart == "" || rawEnd == "" {
		WriteError(w, NewValidationError("startDate and endDate are required"))
		return
	}

	startDate, err := models.ParseDate(rawStart)
	if err != nil {
		WriteError(w, NewValidationError("startDate must be in YYYY-MM-DD format"))
		return
	}

	endDate, err := models.ParseDate(rawEnd)
	if err != nil {
		WriteError(w, NewValidationError("endDate must be in YYYY-MM-DD format"))
		return
	}

	report, err := s.reports.AdminOverview(startDate, endDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, report)
}
