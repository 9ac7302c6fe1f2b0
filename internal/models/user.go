package models

import (
	"math"
	"time"
)

// User represents an account stored in the users table. Staff members carry
// administrative visibility across all departments.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used in exports and session listings.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Caller identifies the authenticated principal supplied by the identity
// boundary. Authorization decisions branch only on IsStaff.
type Caller struct {
	ID           string  `json:"id"`
	IsStaff      bool    `json:"is_staff"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
}

// Pagination contains pagination metadata returned in list responses. Page
// numbers outside [1, TotalPages] are clamped rather than rejected.
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalCount  int  `json:"total_count"`
	TotalPages  int  `json:"total_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewPagination computes pagination metadata for a page request against a
// known total, clamping the requested page into the valid range.
func NewPagination(page, pageSize, total int) *Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return &Pagination{
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// Offset returns the SQL offset for the clamped page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
