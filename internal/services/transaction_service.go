package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/fintrack/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// TransactionService exposes the transaction HTTP surface: CRUD,
// filtered listing, the financial summary and the category listing.
type TransactionService struct {
	store      *TransactionStore
	categories *CategoryService
	reports    *AggregationService
	validator  *ValidationHelper
}

func NewTransactionService(db *sql.DB) *TransactionService {
	categories := NewCategoryService(db)
	return &TransactionService{
		store:      NewTransactionStore(db, categories),
		categories: categories,
		reports:    NewAggregationService(db),
		validator:  NewValidationHelper(),
	}
}

// CreateTransactionRequest represents the transaction creation payload
// @Description Transaction creation request structure
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required" example:"150.75"`
	Type        string          `json:"type" validate:"required,oneof=income expense" example:"expense"`
	Category    string          `json:"category" validate:"required,max=100" example:"Food & Dining"`
	Description *string         `json:"description" validate:"omitempty,max=500" example:"Weekly groceries"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02" example:"2025-03-14"`
}

// UpdateTransactionRequest carries partial transaction fields. Absent
// fields leave the stored value untouched.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type" validate:"omitempty,oneof=income expense"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Date        *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateTransaction records a new income or expense entry
// @Summary Create transaction
// @Description Create a categorized income or expense transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CreateTransactionRequest true "Transaction to create"
// @Success 201 {object} models.Transaction "Transaction created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Security BearerAuth
// @Router /transactions [post]
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	var req CreateTransactionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !req.Amount.IsPositive() {
		WriteError(w, NewValidationError("Amount must be greater than zero"))
		return
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		WriteError(w, NewValidationError(err.Error()))
		return
	}

	tx, err := s.store.Create(userID, TransactionInput{
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[TX] Transaction %d created for user %d", tx.ID, userID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"transaction": tx,
	})
}

// ListTransactions returns a filtered, paginated page of the caller's
// transactions
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param type query string false "Filter by type (income or expense)"
// @Param category query string false "Filter by category name substring"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Param search query string false "Search description and category"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} ListResult
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Security BearerAuth
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := s.store.ListForUser(userID, filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, result)
}

// GetTransaction returns a single transaction owned by the caller
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (s *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid transaction ID"))
		return
	}

	tx, err := s.store.GetByID(userID, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, tx)
}

// UpdateTransaction applies a partial update to one of the caller's
// transactions
// @Summary Update transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path int true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Fields to update"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [patch]
func (s *TransactionService) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid transaction ID"))
		return
	}

	var req UpdateTransactionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	patch := TransactionPatch{
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			WriteError(w, NewValidationError(err.Error()))
			return
		}
		patch.Date = &date
	}

	tx, err := s.store.Update(userID, id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[TX] Transaction %d updated for user %d", id, userID)
	SendJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"transaction": tx,
	})
}

// DeleteTransaction soft-deletes one of the caller's transactions
// @Summary Delete transaction
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [delete]
func (s *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, NewValidationError("Invalid transaction ID"))
		return
	}

	if err := s.store.SoftDelete(userID, id); err != nil {
		WriteError(w, err)
		return
	}

	log.Printf("[TX] Transaction %d deleted for user %d", id, userID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// GetSummary returns income, expense and balance totals plus the
// expense category breakdown for an optional date window
// @Summary Transaction summary
// @Tags transactions
// @Produce json
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} Summary
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Security BearerAuth
// @Router /transactions/summary [get]
func (s *TransactionService) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	startDate, endDate, err := parseDateWindow(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := s.reports.Summary(userID, startDate, endDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, summary)
}

// GetCategories lists the categories visible to the caller
// @Summary List categories
// @Tags transactions
// @Produce json
// @Success 200 {array} models.Category
// @Security BearerAuth
// @Router /transactions/categories [get]
func (s *TransactionService) GetCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		WriteError(w, NewUnauthorizedError("Unauthorized"))
		return
	}

	categories, err := s.categories.ListForUser(userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// parseTransactionFilter reads the shared listing query parameters.
func parseTransactionFilter(r *http.Request) (TransactionFilter, error) {
	q := r.URL.Query()

	filter := TransactionFilter{
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	if filter.Type != "" && !models.ValidTransactionType(filter.Type) {
		return filter, NewValidationError("Type must be either 'income' or 'expense'")
	}

	startDate, endDate, err := parseDateWindow(r)
	if err != nil {
		return filter, err
	}
	filter.StartDate = startDate
	filter.EndDate = endDate

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, NewValidationError("Page must be a positive integer")
		}
		filter.Page = page
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, NewValidationError("Limit must be a positive integer")
		}
		filter.PageSize = limit
	}

	return filter, nil
}

// parseDateWindow reads optional startDate/endDate query parameters.
func parseDateWindow(r *http.Request) (*models.Date, *models.Date, error) {
	var startDate, endDate *models.Date

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return nil, nil, NewValidationError("startDate must be in YYYY-MM-DD format")
		}
		startDate = &d
	}

	if raw := r.URL.Query().Get("endDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return nil, nil, NewValidationError("endDate must be in YYYY-MM-DD format")
		}
		endDate = &d
	}

	return startDate, endDate, nil
}
