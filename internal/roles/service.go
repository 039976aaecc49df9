package roles

import (
	"context"
	"errors"
	"strings"

	"github.com/atlas-iam/atlas-iam/internal/rbac"
	"github.com/atlas-iam/atlas-iam/internal/shared"
)

// ErrNameRequired indicates a role was submitted without a name.
var ErrNameRequired = errors.New("roles: name required")

// ErrNameTaken indicates another live role already carries the name.
var ErrNameTaken = errors.New("roles: name already taken")

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, name, description string) (Role, error)
	Update(ctx context.Context, id int64, name, description string) (Role, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Service handles role administration.
type Service struct {
	repo     RepositoryPort
	defaults rbac.Defaults
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, defaults rbac.Defaults) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// List returns roles and the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role after validation. Names must be unique among
// live roles.
func (s *Service) Create(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrNameRequired
	}
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return Role{}, ErrNameTaken
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Role{}, err
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description))
}

// Update updates an existing role after validation.
func (s *Service) Update(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrNameRequired
	}
	return s.repo.Update(ctx, id, name, strings.TrimSpace(description))
}

// Delete soft-deletes a role.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// DefaultRole resolves a well-known role ("admin" or "member") by its
// configured identifier.
func (s *Service) DefaultRole(ctx context.Context, name string) (Role, error) {
	id, ok := s.defaults.RoleID(name)
	if !ok {
		return Role{}, ErrUnknownDefault
	}
	return s.repo.Get(ctx, id)
}

// ErrUnknownDefault indicates a default role name outside admin/member.
var ErrUnknownDefault = errors.New("roles: unknown default role")
