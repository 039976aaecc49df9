package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"log/slog"

	"github.com/atlas-iam/atlas-iam/internal/rbac"
	"github.com/atlas-iam/atlas-iam/internal/shared"
	_ "github.com/atlas-iam/atlas-iam/testing"
)

type handlerFixture struct {
	router   chi.Router
	repo     *mockRepo
	sessions *shared.SessionManager
}

// commitWriter flushes the session before headers go out, the way the
// application middleware does.
type commitWriter struct {
	http.ResponseWriter
	sessions  *shared.SessionManager
	sess      *shared.Session
	req       *http.Request
	committed bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.committed {
		w.committed = true
		_ = w.sessions.Commit(w.req.Context(), w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "atlas_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	repo := newMockRepo()
	handler := NewHandler(slog.New(slog.DiscardHandler), NewService(repo), sessions, csrf, time.Hour)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			next.ServeHTTP(&commitWriter{ResponseWriter: w, sessions: sessions, sess: sess, req: r}, r)
		})
	})
	handler.MountRoutes(router)
	return &handlerFixture{router: router, repo: repo, sessions: sessions}
}

func (f *handlerFixture) postJSON(path, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	f := newHandlerFixture(t)
	user := f.repo.addUser(t, "ada@example.com", "super-secret", rbac.StatusVerified)

	rec := f.postJSON("/login", `{"email":"ada@example.com","password":"super-secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != user.ID {
		t.Fatalf("user_id = %d, want %d", resp.UserID, user.ID)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "atlas_session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("login must establish a session cookie")
	}

	// The persisted session carries the authenticated user.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	sess, err := f.sessions.Load(context.Background(), r)
	if err != nil {
		t.Fatalf("load committed session: %v", err)
	}
	if got := sess.User(); got != "1" {
		t.Fatalf("session user = %q, want 1", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.addUser(t, "ada@example.com", "super-secret", rbac.StatusVerified)

	cases := map[string]string{
		"wrong password": `{"email":"ada@example.com","password":"not-the-one"}`,
		"unknown email":  `{"email":"ghost@example.com","password":"super-secret"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.postJSON("/login", body)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.addUser(t, "banned@example.com", "super-secret", rbac.StatusSuspended)

	rec := f.postJSON("/login", `{"email":"banned@example.com","password":"super-secret"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(strings.ToLower(rec.Body.String()), "suspended") {
		t.Fatalf("expected a suspension message, got: %s", rec.Body.String())
	}

	// Without the right password the account state must not leak.
	rec = f.postJSON("/login", `{"email":"banned@example.com","password":"wrong-one"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginValidatesForm(t *testing.T) {
	f := newHandlerFixture(t)

	cases := map[string]string{
		"malformed json": `{"email":`,
		"missing email":  `{"password":"super-secret"}`,
		"short password": `{"email":"ada@example.com","password":"short"}`,
		"invalid email":  `{"email":"not-an-email","password":"super-secret"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.postJSON("/login", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCSRFEndpointIssuesToken(t *testing.T) {
	f := newHandlerFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp csrfResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a csrf token")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.addUser(t, "ada@example.com", "super-secret", rbac.StatusVerified)

	login := f.postJSON("/login", `{"email":"ada@example.com","password":"super-secret"}`)
	var cookie *http.Cookie
	for _, c := range login.Result().Cookies() {
		if c.Name == "atlas_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("no session cookie after login")
	}

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	if _, ok := f.repo.sessions[cookie.Value]; ok {
		t.Fatalf("session record must be removed on logout")
	}
}
