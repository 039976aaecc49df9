package users

import (
	"time"

	"github.com/atlas-iam/atlas-iam/internal/rbac"
)

// User represents a user account.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Status    rbac.Status `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}

// NotifyEmail returns the address notifications are delivered to.
func (u User) NotifyEmail() string {
	return u.Email
}

// DisplayName returns the name used when addressing the user. Falls back
// to the email address for accounts without a name.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
