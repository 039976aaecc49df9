package rbac

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Subject represents a principal whose access is being evaluated: an
// account status plus a set of assigned roles resolved through a RoleStore.
//
// A Subject caches the resolved role set for its own lifetime. The cache is
// invalidated by the Subject's own AttachRoles/DetachRoles calls, never by
// out-of-band store changes; callers that need freshness must call Reload.
//
// A Subject is not safe for concurrent use. Derive one per request.
type Subject struct {
	ID     int64
	Status Status

	store  RoleStore
	roles  map[string]struct{}
	loaded bool
}

// NewSubject constructs a Subject backed by the given store. A nil store is
// permitted; role resolution then fails and the predicates stay closed.
func NewSubject(id int64, status Status, store RoleStore) *Subject {
	return &Subject{ID: id, Status: status, store: store}
}

// Activate marks the subject verified. Returns the subject for chaining.
func (s *Subject) Activate() *Subject {
	s.Status = StatusVerified
	return s
}

// Deactivate marks the subject unverified. Returns the subject for chaining.
func (s *Subject) Deactivate() *Subject {
	s.Status = StatusUnverified
	return s
}

// Suspend marks the subject suspended. Returns the subject for chaining.
func (s *Subject) Suspend() *Subject {
	s.Status = StatusSuspended
	return s
}

// IsActivated reports whether the subject is verified.
func (s *Subject) IsActivated() bool {
	return s.Status == StatusVerified
}

// IsSuspended reports whether the subject is suspended.
func (s *Subject) IsSuspended() bool {
	return s.Status == StatusSuspended
}

// Roles returns the resolved role names sorted by name, loading them from
// the store on first access.
func (s *Subject) Roles(ctx context.Context) ([]string, error) {
	set, err := s.roleSet(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Reload discards the cached role snapshot and resolves it again.
func (s *Subject) Reload(ctx context.Context) error {
	s.invalidate()
	_, err := s.roleSet(ctx)
	return err
}

// Is reports whether the subject holds every one of the given roles.
// An empty requirement is vacuously true. A role resolution failure yields
// false: authorization checks fail closed rather than propagate the fault.
func (s *Subject) Is(ctx context.Context, required ...string) bool {
	set, err := s.roleSet(ctx)
	if err != nil {
		return false
	}
	for _, ref := range required {
		if _, ok := set[NormalizeRef(ref)]; !ok {
			return false
		}
	}
	return true
}

// IsAny reports whether the subject holds at least one of the given roles.
// An empty requirement is false: no role can match nothing. Resolution
// failures yield false, as in Is.
func (s *Subject) IsAny(ctx context.Context, required ...string) bool {
	set, err := s.roleSet(ctx)
	if err != nil {
		return false
	}
	for _, ref := range required {
		if _, ok := set[NormalizeRef(ref)]; ok {
			return true
		}
	}
	return false
}

// IsNot is the negation of Is.
func (s *Subject) IsNot(ctx context.Context, required ...string) bool {
	return !s.Is(ctx, required...)
}

// IsNotAny is the negation of IsAny.
func (s *Subject) IsNotAny(ctx context.Context, required ...string) bool {
	return !s.IsAny(ctx, required...)
}

// AttachRoles assigns the given roles through the store and invalidates the
// cached snapshot. Store failures propagate unmodified; mutations never
// fail closed.
func (s *Subject) AttachRoles(ctx context.Context, roleIDs ...int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Attach(ctx, s.ID, roleIDs); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// DetachRoles removes the given roles through the store and invalidates the
// cached snapshot. Store failures propagate unmodified.
func (s *Subject) DetachRoles(ctx context.Context, roleIDs ...int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Detach(ctx, s.ID, roleIDs); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Subject) roleSet(ctx context.Context) (map[string]struct{}, error) {
	if s.loaded {
		return s.roles, nil
	}
	if s.store == nil {
		return nil, ErrNoStore
	}
	names, err := s.store.ResolveRoles(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name = NormalizeRef(name); name != "" {
			set[name] = struct{}{}
		}
	}
	s.roles = set
	s.loaded = true
	return set, nil
}

func (s *Subject) invalidate() {
	s.roles = nil
	s.loaded = false
}

// NormalizeRef canonicalizes a role reference: NFC form, trimmed,
// lower-cased. Predicates are insensitive to user-entered casing.
func NormalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(ref)))
}
