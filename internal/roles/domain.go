package roles

import "time"

// Role represents a named grant category assignable to users.
type Role struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ListFilters controls ordering and paging for role listings.
type ListFilters struct {
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}
