package rbac

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/atlas-iam/atlas-iam/internal/shared"
)

// StatusSource resolves the current account status of a principal. The
// guards consult it on every request so a suspension takes effect
// immediately, not at the next login.
type StatusSource interface {
	AccountStatus(ctx context.Context, id int64) (Status, error)
}

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Status  StatusSource
	Logger  *slog.Logger
}

// RequireAny ensures the current user is verified and holds at least one
// of the required roles.
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRefs(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			subject, ok := m.currentSubject(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if subject.IsAny(r.Context(), normalized...) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current user is verified and holds every one of
// the required roles.
func (m Middleware) RequireAll(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRefs(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := m.currentSubject(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if subject.Is(r.Context(), normalized...) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// currentSubject derives the subject for the session user with its status
// resolved through the StatusSource. Anything short of a verified account
// denies: missing session, unparseable ID, a failed status lookup, or a
// suspended or unverified status.
func (m Middleware) currentSubject(r *http.Request) (*Subject, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return nil, false
	}
	if m.Status == nil {
		return nil, false
	}
	status, err := m.Status.AccountStatus(r.Context(), id)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("rbac resolve account status", slog.Int64("user_id", id), slog.Any("error", err))
		}
		return nil, false
	}
	subject := m.Service.SubjectFor(id, status)
	if !subject.IsActivated() {
		return nil, false
	}
	return subject, true
}

func normalizeRefs(refs []string) []string {
	unique := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref = NormalizeRef(ref); ref != "" {
			unique[ref] = struct{}{}
		}
	}
	normalized := make([]string, 0, len(unique))
	for ref := range unique {
		normalized = append(normalized, ref)
	}
	return normalized
}
