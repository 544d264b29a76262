package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

var defaultCategories = []string{
	"Food & Dining",
	"Rent & Utilities",
	"Transportation",
	"Healthcare",
	"Entertainment",
	"Salary",
	"Gifts",
	"Insurance",
	"Investment",
	"Other",
}

// Seed bootstraps the admin account and the default global categories.
// It is idempotent and safe to run on every startup. The admin password
// arrives pre-hashed so this package stays free of crypto concerns.
func Seed(db *sql.DB, adminPasswordHash string) error {
	if err := seedAdmin(db, adminPasswordHash); err != nil {
		return err
	}
	return seedCategories(db)
}

func seedAdmin(db *sql.DB, passwordHash string) error {
	viper.SetDefault("admin.username", "admin")
	viper.SetDefault("admin.email", "admin@fintrack.local")

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE role = 'ADMIN' AND is_deleted = FALSE
		)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		return nil
	}

	var id int
	err = db.QueryRow(`
		INSERT INTO users (username, email, password, role, status)
		VALUES ($1, $2, $3, 'ADMIN', 'ACTIVE')
		RETURNING id`,
		viper.GetString("admin.username"), viper.GetString("admin.email"), passwordHash,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	log.Printf("[SEED] Admin account created - ID: %d, username: %s", id, viper.GetString("admin.username"))
	return nil
}

func seedCategories(db *sql.DB) error {
	for _, name := range defaultCategories {
		res, err := db.Exec(`
			INSERT INTO categories (name, user_id)
			SELECT $1, NULL
			WHERE NOT EXISTS (
				SELECT 1 FROM categories WHERE name = $1 AND user_id IS NULL
			)`, name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Printf("[SEED] Category seeded: %s", name)
		}
	}
	return nil
}
