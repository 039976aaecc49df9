package rbac

// Status enumerates the account states of a subject.
type Status int

// Account states. The values are persisted as-is, so they must not change.
const (
	StatusUnverified Status = 0
	StatusVerified   Status = 1
	StatusSuspended  Status = 63
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnverified, StatusVerified, StatusSuspended:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	case StatusSuspended:
		return "suspended"
	}
	return "unknown"
}
