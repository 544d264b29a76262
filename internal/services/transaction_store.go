package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/fintrack/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// TransactionInput carries the fields needed to create a transaction.
// The category arrives as a free-text name and is resolved at write time.
type TransactionInput struct {
	Amount      decimal.Decimal
	Type        string
	Category    string
	Description *string
	Date        models.Date
}

// TransactionPatch holds partial-update fields. Nil pointers leave the
// stored value untouched; supplied values (including an empty
// description) are applied as given.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Type        *string
	Category    *string
	Description *string
	Date        *models.Date
}

// TransactionFilter narrows a listing. Zero values mean "no filter";
// Page and PageSize fall back to 1 and 10. Date bounds are inclusive.
type TransactionFilter struct {
	Type      string       // exact match on income/expense
	Category  string       // case-insensitive substring of the category name
	StartDate *models.Date // inclusive lower bound on the booking date
	EndDate   *models.Date // inclusive upper bound on the booking date
	Search    string       // case-insensitive substring of description or category name
	Page      int
	PageSize  int
}

// AdminTransactionFilter extends TransactionFilter across all users. The
// free-text search additionally matches the owner's username and email.
type AdminTransactionFilter struct {
	TransactionFilter
	Username string // case-insensitive substring of the owner's username
}

// ListResult is one page of transactions plus pagination totals.
type ListResult struct {
	Transactions []models.Transaction `json:"transactions"`
	TotalItems   int                  `json:"totalItems"`
	TotalPages   int                  `json:"totalPages"`
	CurrentPage  int                  `json:"currentPage"`
}

// TransactionStore is the persistence accessor for transactions: CRUD,
// soft delete, and filtered listing. Every read excludes soft-deleted
// rows.
type TransactionStore struct {
	db         *sql.DB
	categories *CategoryService
}

func NewTransactionStore(db *sql.DB, categories *CategoryService) *TransactionStore {
	return &TransactionStore{db: db, categories: categories}
}

// Create resolves the category and persists a new transaction, returning
// the stored row joined with its category. Amount and type invariants
// are re-checked here even though the HTTP layer validates them first.
func (ts *TransactionStore) Create(userID int, input TransactionInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, NewValidationError("Amount must be greater than zero")
	}
	if !models.ValidTransactionType(input.Type) {
		return nil, NewValidationError("Type must be either 'income' or 'expense'")
	}

	category, err := ts.categories.ResolveOrCreate(userID, input.Category)
	if err != nil {
		return nil, err
	}

	var id int
	err = ts.db.QueryRow(`
		INSERT INTO transactions (user_id, amount, type, category_id, description, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		userID, input.Amount, input.Type, category.ID, input.Description, input.Date,
	).Scan(&id)
	if err != nil {
		return nil, NewInternalError("Failed to create transaction", err)
	}

	return ts.GetByID(userID, id)
}

// GetByID fetches one non-deleted transaction owned by userID.
func (ts *TransactionStore) GetByID(userID, id int) (*models.Transaction, error) {
	var tx models.Transaction
	err := ts.db.QueryRow(`
		SELECT t.id, t.user_id, t.amount, t.type, t.description, t.date,
		       t.created_at, t.updated_at, c.id, c.name
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.id = $1 AND t.user_id = $2 AND t.is_deleted = FALSE`,
		id, userID,
	).Scan(
		&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date,
		&tx.CreatedAt, &tx.UpdatedAt, &tx.Category.ID, &tx.Category.Name,
	)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError("Transaction not found")
	}
	if err != nil {
		return nil, NewInternalError("Failed to fetch transaction", err)
	}

	return &tx, nil
}

// Update applies a partial update, re-resolving the category only when a
// new name is supplied.
func (ts *TransactionStore) Update(userID, id int, patch TransactionPatch) (*models.Transaction, error) {
	// Ownership and liveness check first, matching delete semantics.
	if _, err := ts.GetByID(userID, id); err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, NewValidationError("Amount must be greater than zero")
		}
		sets = append(sets, fmt.Sprintf("amount = $%d", argIndex))
		args = append(args, *patch.Amount)
		argIndex++
	}

	if patch.Type != nil {
		if !models.ValidTransactionType(*patch.Type) {
			return nil, NewValidationError("Type must be either 'income' or 'expense'")
		}
		sets = append(sets, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, *patch.Type)
		argIndex++
	}

	if patch.Category != nil {
		category, err := ts.categories.ResolveOrCreate(userID, *patch.Category)
		if err != nil {
			return nil, err
		}
		sets = append(sets, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, category.ID)
		argIndex++
	}

	if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *patch.Description)
		argIndex++
	}

	if patch.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argIndex))
		args = append(args, *patch.Date)
		argIndex++
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		query := fmt.Sprintf(`
			UPDATE transactions SET %s
			WHERE id = $%d AND user_id = $%d AND is_deleted = FALSE`,
			strings.Join(sets, ", "), argIndex, argIndex+1)
		args = append(args, id, userID)

		if _, err := ts.db.Exec(query, args...); err != nil {
			return nil, NewInternalError("Failed to update transaction", err)
		}
	}

	return ts.GetByID(userID, id)
}

// SoftDelete flips the deletion flag. Deleting an already-deleted or
// foreign transaction reports NotFound; rows are never physically
// removed.
func (ts *TransactionStore) SoftDelete(userID, id int) error {
	res, err := ts.db.Exec(`
		UPDATE transactions SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		id, userID)
	if err != nil {
		return NewInternalError("Failed to delete transaction", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return NewInternalError("Failed to delete transaction", err)
	}
	if affected == 0 {
		return NewNotFoundError("Transaction not found")
	}

	return nil
}

// ListForUser returns one page of the user's transactions, newest date
// first, ties broken by creation time descending.
func (ts *TransactionStore) ListForUser(userID int, filter TransactionFilter) (*ListResult, error) {
	conditions := []string{"t.user_id = $1", "t.is_deleted = FALSE"}
	args := []interface{}{userID}
	argIndex := 2

	conditions, args, argIndex = appendCommonFilters(conditions, args, argIndex, filter)

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(t.description ILIKE $%d OR c.name ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE ` + where
	if err := ts.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := `
		SELECT t.id, t.user_id, t.amount, t.type, t.description, t.date,
		       t.created_at, t.updated_at, c.id, c.name
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE ` + where + fmt.Sprintf(`
		ORDER BY t.date DESC, t.created_at DESC
		LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := ts.db.Query(query, args...)
	if err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date,
			&tx.CreatedAt, &tx.UpdatedAt, &tx.Category.ID, &tx.Category.Name,
		)
		if err != nil {
			return nil, NewInternalError("Failed to fetch transactions", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}

	return &ListResult{
		Transactions: transactions,
		TotalItems:   total,
		TotalPages:   totalPages(total, pageSize),
		CurrentPage:  page,
	}, nil
}

// ListForAdmin lists transactions across all users with the owner
// joined in. The free-text search also covers username and email.
func (ts *TransactionStore) ListForAdmin(filter AdminTransactionFilter) (*ListResult, error) {
	conditions := []string{"t.is_deleted = FALSE"}
	args := []interface{}{}
	argIndex := 1

	conditions, args, argIndex = appendCommonFilters(conditions, args, argIndex, filter.TransactionFilter)

	if filter.Username != "" {
		conditions = append(conditions, fmt.Sprintf("u.username ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Username+"%")
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(t.description ILIKE $%d OR c.name ILIKE $%d OR u.username ILIKE $%d OR u.email ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		JOIN users u ON t.user_id = u.id
		WHERE ` + where
	if err := ts.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := `
		SELECT t.id, t.user_id, t.amount, t.type, t.description, t.date,
		       t.created_at, t.updated_at, c.id, c.name, u.id, u.username, u.email
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		JOIN users u ON t.user_id = u.id
		WHERE ` + where + fmt.Sprintf(`
		ORDER BY t.date DESC, t.created_at DESC
		LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := ts.db.Query(query, args...)
	if err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var owner models.TransactionOwner
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date,
			&tx.CreatedAt, &tx.UpdatedAt, &tx.Category.ID, &tx.Category.Name,
			&owner.ID, &owner.Username, &owner.Email,
		)
		if err != nil {
			return nil, NewInternalError("Failed to fetch transactions", err)
		}
		tx.User = &owner
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("Failed to fetch transactions", err)
	}

	return &ListResult{
		Transactions: transactions,
		TotalItems:   total,
		TotalPages:   totalPages(total, pageSize),
		CurrentPage:  page,
	}, nil
}

// appendCommonFilters adds the type, category and date-window predicates
// shared by the user and admin listings.
func appendCommonFilters(conditions []string, args []interface{}, argIndex int, filter TransactionFilter) ([]string, []interface{}, int) {
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("t.type = $%d", argIndex))
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Category+"%")
		argIndex++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.date >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.date <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	return conditions, args, argIndex
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func totalPages(totalItems, pageSize int) int {
	return (totalItems + pageSize - 1) / pageSize
}
