package auth

import (
	"time"

	"github.com/atlas-iam/atlas-iam/internal/rbac"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Status       rbac.Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
