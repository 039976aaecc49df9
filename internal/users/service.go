package users

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-iam/atlas-iam/internal/notify"
	"github.com/atlas-iam/atlas-iam/internal/rbac"
	"github.com/atlas-iam/atlas-iam/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, page shared.Pagination) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, email, name, passwordHash string) (User, error)
	UpdateStatus(ctx context.Context, id int64, status rbac.Status) error
	SoftDelete(ctx context.Context, id int64) error
}

// Notifier dispatches notifications to a recipient.
type Notifier interface {
	Send(ctx context.Context, to notify.Recipient, subject, template string, data map[string]string) error
}

// Service handles account management business logic.
type Service struct {
	repo     RepositoryPort
	rbac     *rbac.Service
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rbacService *rbac.Service, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, rbac: rbacService, notifier: notifier, logger: logger}
}

// List returns users and the total count.
func (s *Service) List(ctx context.Context, page shared.Pagination) ([]User, int, error) {
	return s.repo.List(ctx, page)
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new unverified account, grants the default member
// role when one is configured and enqueues a welcome notification.
func (s *Service) Create(ctx context.Context, email, name, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, email, strings.TrimSpace(name), string(hash))
	if err != nil {
		return User{}, err
	}

	if memberID, ok := s.rbac.Defaults().RoleID(rbac.DefaultMember); ok {
		if err := s.subjectFor(user).AttachRoles(ctx, memberID); err != nil {
			return User{}, err
		}
	}

	s.sendNotification(ctx, user, "Welcome", "welcome")
	return user, nil
}

// Activate marks the account verified and persists the transition.
func (s *Service) Activate(ctx context.Context, id int64) (User, error) {
	user, err := s.transition(ctx, id, (*rbac.Subject).Activate)
	if err != nil {
		return User{}, err
	}
	s.sendNotification(ctx, user, "Account activated", "account_activated")
	return user, nil
}

// Deactivate marks the account unverified and persists the transition.
func (s *Service) Deactivate(ctx context.Context, id int64) (User, error) {
	return s.transition(ctx, id, (*rbac.Subject).Deactivate)
}

// Suspend marks the account suspended, persists the transition and
// notifies the user.
func (s *Service) Suspend(ctx context.Context, id int64) (User, error) {
	user, err := s.transition(ctx, id, (*rbac.Subject).Suspend)
	if err != nil {
		return User{}, err
	}
	s.sendNotification(ctx, user, "Account suspended", "account_suspended")
	return user, nil
}

// AccountStatus returns the persisted status of the account. Implements
// rbac.StatusSource for the authorization guards.
func (s *Service) AccountStatus(ctx context.Context, id int64) (rbac.Status, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return rbac.StatusUnverified, err
	}
	return user.Status, nil
}

// Roles returns the resolved role names of the user.
func (s *Service) Roles(ctx context.Context, id int64) ([]string, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.subjectFor(user).Roles(ctx)
}

// AttachRoles grants roles to the user. Store failures propagate.
func (s *Service) AttachRoles(ctx context.Context, id int64, roleIDs []int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.subjectFor(user).AttachRoles(ctx, roleIDs...)
}

// DetachRoles revokes roles from the user. Store failures propagate.
func (s *Service) DetachRoles(ctx context.Context, id int64, roleIDs []int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.subjectFor(user).DetachRoles(ctx, roleIDs...)
}

// Delete soft-deletes the account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// SubjectFor derives the access subject for a user row.
func (s *Service) SubjectFor(user User) *rbac.Subject {
	return s.subjectFor(user)
}

func (s *Service) subjectFor(user User) *rbac.Subject {
	return s.rbac.SubjectFor(user.ID, user.Status)
}

// transition applies a status mutation to a fresh subject and persists the
// result. Status transitions themselves cannot fail; only the load and the
// write can.
func (s *Service) transition(ctx context.Context, id int64, mutate func(*rbac.Subject) *rbac.Subject) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	subject := mutate(s.subjectFor(user))
	if err := s.repo.UpdateStatus(ctx, id, subject.Status); err != nil {
		return User{}, err
	}
	user.Status = subject.Status
	return user, nil
}

// sendNotification enqueues a notification best-effort. Delivery problems
// must not fail the account operation that triggered them.
func (s *Service) sendNotification(ctx context.Context, user User, subject, template string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, user, subject, template, nil); err != nil && s.logger != nil {
		s.logger.Warn("enqueue notification",
			slog.String("template", template),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
	}
}
