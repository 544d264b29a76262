package services

import (
	"database/sql"
	"fmt"

	"github.com/fintrack/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AggregationService computes read-only sums, counts and grouped
// breakdowns over transactions, users and login logs.
type AggregationService struct {
	db *sql.DB
}

func NewAggregationService(db *sql.DB) *AggregationService {
	return &AggregationService{db: db}
}

// CategoryTotal is a per-category expense sum.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Period echoes the requested reporting window. Open-ended bounds render
// as "All Time".
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Summary is the per-user financial summary.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
	Categories    []CategoryTotal `json:"categories"`
	Period        Period          `json:"period"`
}

// UserActivity aggregates account counts for the admin overview.
type UserActivity struct {
	TotalUsers       int `json:"totalUsers"`
	NewRegistrations int `json:"newRegistrations"`
	ActiveUsers      int `json:"activeUsers"`
	DeactivatedUsers int `json:"deactivatedUsers"`
}

// FinancialPerformance aggregates platform-wide money movement.
type FinancialPerformance struct {
	PlatformTotalIncome    decimal.Decimal `json:"platformTotalIncome"`
	PlatformTotalExpenses  decimal.Decimal `json:"platformTotalExpenses"`
	PlatformNetBalance     decimal.Decimal `json:"platformNetBalance"`
	TotalTransactionsCount int             `json:"totalTransactionsCount"`
}

// SecurityAndLogs aggregates login attempt counts.
type SecurityAndLogs struct {
	TotalLoginAttempts  int `json:"totalLoginAttempts"`
	SuccessfulLogins    int `json:"successfulLogins"`
	FailedLogins        int `json:"failedLogins"`
	UniqueUsersLoggedIn int `json:"uniqueUsersLoggedIn"`
}

// AdminOverview is the cross-system report for administrators.
type AdminOverview struct {
	Period                  Period               `json:"period"`
	UserActivity            UserActivity         `json:"userActivity"`
	FinancialPerformance    FinancialPerformance `json:"financialPerformance"`
	SecurityAndLogs         SecurityAndLogs      `json:"securityAndLogs"`
	TopCategoriesSystemWide []CategoryTotal      `json:"topCategoriesSystemWide"`
}

// Summary sums the user's non-deleted transactions inside the optional
// inclusive date window, split by type, with an expense-only category
// breakdown. Balance is income minus expenses rounded to 2 decimal
// places.
func (s *AggregationService) Summary(userID int, startDate, endDate *models.Date) (*Summary, error) {
	sumWindow, dateArgs := dateWindow("date", startDate, endDate, 3)
	sumQuery := "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND is_deleted = FALSE AND type = $2" + sumWindow

	var totalIncome, totalExpenses decimal.Decimal
	incomeArgs := append([]interface{}{userID, models.TypeIncome}, dateArgs...)
	if err := s.db.QueryRow(sumQuery, incomeArgs...).Scan(&totalIncome); err != nil {
		return nil, NewInternalError("Failed to fetch transaction summary", err)
	}

	expenseArgs := append([]interface{}{userID, models.TypeExpense}, dateArgs...)
	if err := s.db.QueryRow(sumQuery, expenseArgs...).Scan(&totalExpenses); err != nil {
		return nil, NewInternalError("Failed to fetch transaction summary", err)
	}

	breakdownWindow, _ := dateWindow("t.date", startDate, endDate, 3)
	breakdownQuery := `
		SELECT c.name, SUM(t.amount) AS total
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = $1 AND t.is_deleted = FALSE AND t.type = $2` +
		breakdownWindow + `
		GROUP BY c.id, c.name`

	rows, err := s.db.Query(breakdownQuery, expenseArgs...)
	if err != nil {
		return nil, NewInternalError("Failed to fetch transaction summary", err)
	}
	defer rows.Close()

	categories := []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total); err != nil {
			return nil, NewInternalError("Failed to fetch transaction summary", err)
		}
		categories = append(categories, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("Failed to fetch transaction summary", err)
	}

	return &Summary{
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		Balance:       totalIncome.Sub(totalExpenses).Round(2),
		Categories:    categories,
		Period:        formatPeriod(startDate, endDate),
	}, nil
}

// AdminOverview builds the composite cross-system report for the given
// inclusive date window. Windows with no matching rows yield zero sums
// and an empty top-categories list.
func (s *AggregationService) AdminOverview(startDate, endDate models.Date) (*AdminOverview, error) {
	report := &AdminOverview{
		Period: Period{StartDate: startDate.String(), EndDate: endDate.String()},
	}

	// User activity
	userCounts := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users WHERE is_deleted = FALSE`, nil, &report.UserActivity.TotalUsers},
		{`SELECT COUNT(*) FROM users WHERE is_deleted = FALSE AND created_at::date BETWEEN $1 AND $2`,
			[]interface{}{startDate, endDate}, &report.UserActivity.NewRegistrations},
		{`SELECT COUNT(*) FROM users WHERE is_deleted = FALSE AND status = 'ACTIVE'`, nil, &report.UserActivity.ActiveUsers},
		{`SELECT COUNT(*) FROM users WHERE is_deleted = FALSE AND status = 'DEACTIVATED'`, nil, &report.UserActivity.DeactivatedUsers},
	}
	for _, c := range userCounts {
		if err := s.db.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return nil, NewInternalError("Failed to build overview report", err)
		}
	}

	// Financial performance
	err := s.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE is_deleted = FALSE AND date BETWEEN $1 AND $2`,
		startDate, endDate,
	).Scan(
		&report.FinancialPerformance.PlatformTotalIncome,
		&report.FinancialPerformance.PlatformTotalExpenses,
		&report.FinancialPerformance.TotalTransactionsCount,
	)
	if err != nil {
		return nil, NewInternalError("Failed to build overview report", err)
	}
	report.FinancialPerformance.PlatformNetBalance = report.FinancialPerformance.PlatformTotalIncome.
		Sub(report.FinancialPerformance.PlatformTotalExpenses).Round(2)

	// Security and logs
	err = s.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'SUCCESS'),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COUNT(DISTINCT user_id) FILTER (WHERE status = 'SUCCESS' AND user_id IS NOT NULL)
		FROM login_logs
		WHERE login_at::date BETWEEN $1 AND $2`,
		startDate, endDate,
	).Scan(
		&report.SecurityAndLogs.TotalLoginAttempts,
		&report.SecurityAndLogs.SuccessfulLogins,
		&report.SecurityAndLogs.FailedLogins,
		&report.SecurityAndLogs.UniqueUsersLoggedIn,
	)
	if err != nil {
		return nil, NewInternalError("Failed to build overview report", err)
	}

	// Top expense categories system-wide
	rows, err := s.db.Query(`
		SELECT c.name, SUM(t.amount) AS total_amount
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.type = 'expense' AND t.is_deleted = FALSE AND t.date BETWEEN $1 AND $2
		GROUP BY c.id, c.name
		ORDER BY total_amount DESC
		LIMIT 5`,
		startDate, endDate)
	if err != nil {
		return nil, NewInternalError("Failed to build overview report", err)
	}
	defer rows.Close()

	report.TopCategoriesSystemWide = []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total); err != nil {
			return nil, NewInternalError("Failed to build overview report", err)
		}
		report.TopCategoriesSystemWide = append(report.TopCategoriesSystemWide, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("Failed to build overview report", err)
	}

	return report, nil
}

// dateWindow renders optional inclusive bounds on the given date column
// as SQL predicates, numbering placeholders from argIndex.
func dateWindow(column string, startDate, endDate *models.Date, argIndex int) (string, []interface{}) {
	var conds string
	var args []interface{}
	if startDate != nil {
		conds += fmt.Sprintf(" AND %s >= $%d", column, argIndex)
		args = append(args, *startDate)
		argIndex++
	}
	if endDate != nil {
		conds += fmt.Sprintf(" AND %s <= $%d", column, argIndex)
		args = append(args, *endDate)
	}
	return conds, args
}

func formatPeriod(startDate, endDate *models.Date) Period {
	p := Period{StartDate: "All Time", EndDate: "All Time"}
	if startDate != nil {
		p.StartDate = startDate.String()
	}
	if endDate != nil {
		p.EndDate = endDate.String()
	}
	return p
}
