package auth

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *storage.Store, *testClock) {
	t.Helper()
	store, err := storage.NewStore("")
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	clock := &testClock{now: time.Now()}
	manager, err := NewTokenManager(testTokenConfig(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	return NewService(store, manager), store, clock
}

func registerTestUser(t *testing.T, service *Service) string {
	t.Helper()
	user, err := service.Register(RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return user.ID
}

func TestRegisterValidatesRequiredFields(t *testing.T) {
	service, _, _ := newTestService(t)
	cases := []RegisterParams{
		{Email: "a@b.c", FullName: "A", Password: "p"},
		{Username: "a", FullName: "A", Password: "p"},
		{Username: "a", Email: "a@b.c", Password: "p"},
		{Username: "a", Email: "a@b.c", FullName: "A"},
		{Username: "   ", Email: "a@b.c", FullName: "A", Password: "p"},
	}
	for i, params := range cases {
		if _, err := service.Register(params); !apperr.IsStatus(err, http.StatusBadRequest) {
			t.Fatalf("case %d: expected 400 validation error, got %v", i, err)
		}
	}
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	service, store, _ := newTestService(t)
	id := registerTestUser(t, service)
	stored, ok := store.GetUser(id)
	if !ok {
		t.Fatal("registered user not found in store")
	}
	if stored.PasswordHash == "password123" || stored.PasswordHash == "" {
		t.Fatalf("expected a bcrypt hash, got %q", stored.PasswordHash)
	}
	if !VerifyPassword("password123", stored.PasswordHash) {
		t.Fatal("stored hash does not verify the original password")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _, _ := newTestService(t)
	registerTestUser(t, service)

	_, err := service.Register(RegisterParams{
		Username: "ALICE", Email: "other@example.com", FullName: "A", Password: "p",
	})
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("duplicate username: expected 409, got %v", err)
	}
	_, err = service.Register(RegisterParams{
		Username: "other", Email: "Alice@Example.com", FullName: "A", Password: "p",
	})
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("duplicate email: expected 409, got %v", err)
	}
}

func TestLoginIssuesTokensAndStoresRefresh(t *testing.T) {
	service, store, _ := newTestService(t)
	id := registerTestUser(t, service)

	user, pair, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != id {
		t.Fatalf("logged-in user id = %q, want %q", user.ID, id)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	stored, _ := store.GetUser(id)
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatal("issued refresh token was not persisted on the user record")
	}
}

func TestLoginByEmail(t *testing.T) {
	service, _, _ := newTestService(t)
	registerTestUser(t, service)
	if _, _, err := service.Login("alice@example.com", "password123"); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestLoginErrors(t *testing.T) {
	service, _, _ := newTestService(t)
	registerTestUser(t, service)

	if _, _, err := service.Login("", "password123"); !apperr.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("blank identifier: expected 400, got %v", err)
	}
	if _, _, err := service.Login("nobody", "password123"); !apperr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("unknown user: expected 404, got %v", err)
	}
	if _, _, err := service.Login("alice", "wrong"); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("wrong password: expected 401, got %v", err)
	}
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	service, _, clock := newTestService(t)
	registerTestUser(t, service)

	_, first, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	clock.Advance(time.Second)
	if _, _, err := service.Login("alice", "password123"); err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if _, err := service.Refresh(first.RefreshToken); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("first session's refresh token should be dead, got %v", err)
	}
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	service, _, clock := newTestService(t)
	registerTestUser(t, service)

	_, pair, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	clock.Advance(time.Second)

	next, err := service.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate to a new token")
	}
	// The spent token is rejected on replay.
	if _, err := service.Refresh(pair.RefreshToken); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("replayed token: expected 401, got %v", err)
	}
	// The rotated token still works.
	clock.Advance(time.Second)
	if _, err := service.Refresh(next.RefreshToken); err != nil {
		t.Fatalf("rotated token should refresh: %v", err)
	}
}

func TestRefreshErrors(t *testing.T) {
	service, _, _ := newTestService(t)

	if _, err := service.Refresh(""); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("blank token: expected 401, got %v", err)
	}
	if _, err := service.Refresh("not-a-token"); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("malformed token: expected 401, got %v", err)
	}
}

func TestRefreshRejectsTokenForDeletedUser(t *testing.T) {
	store, err := storage.NewStore("")
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	service := NewService(store, manager)

	orphan, err := manager.IssueRefresh("no-such-user")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	if _, err := service.Refresh(orphan); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("token for missing user: expected 401, got %v", err)
	}
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	service, _, clock := newTestService(t)
	registerTestUser(t, service)

	_, pair, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	clock.Advance(time.Second)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Refresh(pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case apperr.IsStatus(err, http.StatusUnauthorized):
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning refresh, got %d", winners)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	service, store, clock := newTestService(t)
	id := registerTestUser(t, service)

	_, pair, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := service.Logout(id); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	stored, _ := store.GetUser(id)
	if stored.RefreshToken != "" {
		t.Fatal("logout must clear the stored refresh token")
	}
	clock.Advance(time.Second)
	if _, err := service.Refresh(pair.RefreshToken); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("refresh after logout: expected 401, got %v", err)
	}
	// Logging out twice is fine.
	if err := service.Logout(id); err != nil {
		t.Fatalf("second logout returned error: %v", err)
	}
}

func TestChangePasswordErrors(t *testing.T) {
	service, _, _ := newTestService(t)
	id := registerTestUser(t, service)

	if err := service.ChangePassword(id, "wrong", "newpassword"); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("wrong old password: expected 401, got %v", err)
	}
	if err := service.ChangePassword(id, "password123", "  "); !apperr.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("blank new password: expected 400, got %v", err)
	}
	if err := service.ChangePassword("missing", "password123", "newpassword"); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("unknown user: expected 401, got %v", err)
	}
}

func TestChangePasswordKeepsSessionAlive(t *testing.T) {
	service, _, clock := newTestService(t)
	id := registerTestUser(t, service)
	_, pair, err := service.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := service.ChangePassword(id, "password123", "newpassword"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	// The stored refresh token is untouched, so the current session refreshes.
	clock.Advance(time.Second)
	if _, err := service.Refresh(pair.RefreshToken); err != nil {
		t.Fatalf("session should survive a password change: %v", err)
	}
	if _, _, err := service.Login("alice", "password123"); !apperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("old password should no longer log in, got %v", err)
	}
	if _, _, err := service.Login("alice", "newpassword"); err != nil {
		t.Fatalf("new password should log in: %v", err)
	}
}
