package rbac

import "context"

// RoleStore resolves and mutates the role assignments of a subject. The
// store owns referential integrity; callers treat role identifiers as
// opaque.
type RoleStore interface {
	// ResolveRoles returns the names of all roles currently assigned to
	// the subject.
	ResolveRoles(ctx context.Context, subjectID int64) ([]string, error)
	// Attach assigns the given roles to the subject. Attaching a role the
	// subject already holds is a no-op.
	Attach(ctx context.Context, subjectID int64, roleIDs []int64) error
	// Detach removes the given roles from the subject. Detaching a role
	// the subject does not hold is a no-op.
	Detach(ctx context.Context, subjectID int64, roleIDs []int64) error
}

// Defaults holds the configured identifiers of the two well-known roles.
// They are fixed at construction time; deployments remap them through
// configuration rather than by renaming roles.
type Defaults struct {
	AdminRoleID  int64
	MemberRoleID int64
}

// Well-known default role names.
const (
	DefaultAdmin  = "admin"
	DefaultMember = "member"
)

// RoleID returns the configured identifier for a well-known role name.
// The name is normalized the same way predicate role refs are.
func (d Defaults) RoleID(name string) (int64, bool) {
	switch NormalizeRef(name) {
	case DefaultAdmin:
		return d.AdminRoleID, d.AdminRoleID != 0
	case DefaultMember:
		return d.MemberRoleID, d.MemberRoleID != 0
	}
	return 0, false
}
