package rbac

import "errors"

// ErrNoStore indicates a Subject was built without a RoleStore.
var ErrNoStore = errors.New("rbac: no role store configured")

// Service builds Subjects against a single RoleStore and the configured
// well-known role identifiers.
type Service struct {
	store    RoleStore
	defaults Defaults
}

// NewService constructs a Service.
func NewService(store RoleStore, defaults Defaults) *Service {
	return &Service{store: store, defaults: defaults}
}

// SubjectFor builds a Subject for the given principal.
func (s *Service) SubjectFor(id int64, status Status) *Subject {
	return NewSubject(id, status, s.store)
}

// Defaults returns the configured well-known role identifiers.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// Store exposes the underlying RoleStore for collaborators that mutate
// assignments directly.
func (s *Service) Store() RoleStore {
	return s.store
}
