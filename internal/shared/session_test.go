package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionFixture(t *testing.T) (*miniredis.Miniredis, *SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSessionManager(client, "atlas_session", "test-secret", time.Hour, false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, sm := newSessionFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sess.isNew {
		t.Fatalf("expected a fresh session")
	}

	sess.SetUser("7")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, r, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookie := sessionCookie(t, rec, "atlas_session")
	if cookie.Value == "" {
		t.Fatalf("expected a session id in the cookie")
	}

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, r2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := loaded.User(); got != "7" {
		t.Fatalf("user = %q, want 7", got)
	}
	if got := loaded.Get("theme"); got != "dark" {
		t.Fatalf("theme = %q, want dark", got)
	}
}

func TestSessionDestroy(t *testing.T) {
	ctx := context.Background()
	mr, sm := newSessionFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, r)
	sess.SetUser("7")
	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, r, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !mr.Exists("session:" + sess.ID) {
		t.Fatalf("session not persisted")
	}

	sm.Destroy(sess)
	rec2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec2, r, sess); err != nil {
		t.Fatalf("destroy commit: %v", err)
	}
	if mr.Exists("session:" + sess.ID) {
		t.Fatalf("destroyed session still in redis")
	}
	cookie := sessionCookie(t, rec2, "atlas_session")
	if cookie.MaxAge != -1 {
		t.Fatalf("expected expired cookie, got MaxAge=%d", cookie.MaxAge)
	}
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	ctx := context.Background()
	_, sm := newSessionFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "atlas_session", Value: "gone"})
	sess, err := sm.Load(ctx, r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.User() != "" {
		t.Fatalf("stale cookie must not resurrect a user")
	}
}

func TestCSRFTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	cm := NewCSRFManager("csrf-secret")

	sess := &Session{ID: "sess-1", values: map[string]string{}}
	token, err := cm.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}

	again, err := cm.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again != token {
		t.Fatalf("token must be stable within a session")
	}

	if err := cm.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := cm.VerifyToken(ctx, sess, "forged"); err != ErrCSRFTokenMismatch {
		t.Fatalf("forged token: got %v, want ErrCSRFTokenMismatch", err)
	}
	if err := cm.VerifyToken(ctx, sess, ""); err != ErrCSRFTokenMissing {
		t.Fatalf("empty token: got %v, want ErrCSRFTokenMissing", err)
	}
	if err := cm.VerifyToken(ctx, nil, token); err != ErrCSRFTokenMissing {
		t.Fatalf("nil session: got %v, want ErrCSRFTokenMissing", err)
	}
}

func TestPaginationOffset(t *testing.T) {
	cases := []struct {
		page, perPage, want int
	}{
		{1, 20, 0},
		{3, 20, 40},
		{0, 20, 0},
	}
	for _, tc := range cases {
		p := Pagination{Page: tc.page, PerPage: tc.perPage}
		if got := p.Offset(); got != tc.want {
			t.Fatalf("Offset(page=%d) = %d, want %d", tc.page, got, tc.want)
		}
	}
}
