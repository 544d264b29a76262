package models

import "time"

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User account statuses
const (
	StatusActive      = "ACTIVE"
	StatusDeactivated = "DEACTIVATED"
)

// User represents a registered account. The password hash is never
// serialized; deleted accounts stay in the table with is_deleted set.
type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Sex         *string   `json:"sex"`
	DateOfBirth *Date     `json:"date_of_birth"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
