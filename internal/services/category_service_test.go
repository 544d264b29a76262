package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCategoryService_ResolveOrCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("case-insensitive match on existing category", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, user_id FROM categories").
			WithArgs("food & dining", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).
				AddRow(3, "Food & Dining", nil))

		category, err := service.ResolveOrCreate(1, "food & dining")

		assert.NoError(t, err)
		assert.Equal(t, 3, category.ID)
		assert.Equal(t, "Food & Dining", category.Name)
		assert.True(t, category.Global())
	})

	t.Run("user-scoped category created on miss", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, user_id FROM categories").
			WithArgs("Crypto", 1).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("Crypto", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		category, err := service.ResolveOrCreate(1, "Crypto")

		assert.NoError(t, err)
		assert.Equal(t, 42, category.ID)
		assert.Equal(t, "Crypto", category.Name)
		assert.NotNil(t, category.UserID)
		assert.Equal(t, 1, *category.UserID)
	})

	t.Run("surrounding whitespace trimmed before lookup", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, user_id FROM categories").
			WithArgs("Salary", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).
				AddRow(6, "Salary", nil))

		category, err := service.ResolveOrCreate(1, "  Salary  ")

		assert.NoError(t, err)
		assert.Equal(t, "Salary", category.Name)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := service.ResolveOrCreate(1, "   ")

		var appErr *AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryService_ListForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("returns global and user categories", func(t *testing.T) {
		userID := 7
		now := time.Now()
		mock.ExpectQuery("SELECT id, name, user_id, created_at FROM categories").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "created_at"}).
				AddRow(1, "Entertainment", nil, now).
				AddRow(9, "Freelance", userID, now))

		categories, err := service.ListForUser(userID)

		assert.NoError(t, err)
		assert.Len(t, categories, 2)
		assert.True(t, categories[0].Global())
		assert.False(t, categories[1].Global())
	})
}
