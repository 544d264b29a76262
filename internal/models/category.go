package models

import "time"

// Category is a transaction label. UserID nil means the category is
// global and visible to every user; otherwise it belongs to a single
// user. Names are unique per scope only by convention, resolution is
// case-insensitive and categories are never deleted.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UserID    *int      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Global reports whether the category is visible to all users.
func (c *Category) Global() bool {
	return c.UserID == nil
}
