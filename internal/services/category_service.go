package services

import (
	"database/sql"
	"log"
	"strings"

	"github.com/fintrack/backend/internal/models"
)

// CategoryService resolves free-text category names against the two
// visibility scopes: the owning user's categories and the global ones.
type CategoryService struct {
	db *sql.DB
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

// ResolveOrCreate finds the category matching name case-insensitively in
// either the user's scope or the global scope, creating a user-scoped
// category with the submitted casing when neither has it. When both
// scopes hold the same name, the user-scoped row wins (user_id NULLS
// LAST). Concurrent callers may both create; duplicates are accepted.
func (s *CategoryService) ResolveOrCreate(userID int, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("Category name is required")
	}

	var category models.Category
	err := s.db.QueryRow(`
		SELECT id, name, user_id FROM categories
		WHERE LOWER(name) = LOWER($1) AND (user_id = $2 OR user_id IS NULL)
		ORDER BY user_id NULLS LAST
		LIMIT 1`, name, userID).Scan(&category.ID, &category.Name, &category.UserID)
	if err == nil {
		return &category, nil
	}
	if err != sql.ErrNoRows {
		return nil, NewInternalError("Failed to resolve category", err)
	}

	err = s.db.QueryRow(`
		INSERT INTO categories (name, user_id)
		VALUES ($1, $2)
		RETURNING id`, name, userID).Scan(&category.ID)
	if err != nil {
		return nil, NewInternalError("Failed to create category", err)
	}

	category.Name = name
	category.UserID = &userID
	log.Printf("[TX] Created category %q (ID: %d) for user %d", name, category.ID, userID)
	return &category, nil
}

// ListForUser returns all categories visible to the user: global plus
// user-scoped, name ascending.
func (s *CategoryService) ListForUser(userID int) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT id, name, user_id, created_at FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY name ASC`, userID)
	if err != nil {
		return nil, NewInternalError("Failed to fetch categories", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt); err != nil {
			return nil, NewInternalError("Failed to fetch categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("Failed to fetch categories", err)
	}

	return categories, nil
}
