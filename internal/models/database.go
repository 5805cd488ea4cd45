package models

import "time"

// Database represents a tenant database (a named collection of tables)
type Database struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DatabaseMember represents a user's membership in a database
type DatabaseMember struct {
	ID         string    `json:"id"`
	DatabaseID string    `json:"database_id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"` // owner, editor, viewer
	CreatedAt  time.Time `json:"created_at"`
}

// Table represents a table inside a database
type Table struct {
	ID          int64     `json:"id"`
	DatabaseID  string    `json:"database_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
