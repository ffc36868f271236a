package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret-for-tests"),
		RefreshTTL:    24 * time.Hour,
	}
}

func testUser() models.User {
	return models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func TestNewTokenManagerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TokenConfig)
	}{
		{"missing access secret", func(c *TokenConfig) { c.AccessSecret = nil }},
		{"missing refresh secret", func(c *TokenConfig) { c.RefreshSecret = nil }},
		{"zero access ttl", func(c *TokenConfig) { c.AccessTTL = 0 }},
		{"negative refresh ttl", func(c *TokenConfig) { c.RefreshTTL = -time.Hour }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tc.mutate(&cfg)
			if _, err := NewTokenManager(cfg); err == nil {
				t.Fatal("expected config validation to fail")
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	token, err := manager.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	claims, err := manager.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" || claims.FullName != "Alice Example" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	token, err := manager.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	claims, err := manager.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want %q", claims.Subject, "user-1")
	}
}

func TestTokensDoNotCrossVerify(t *testing.T) {
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	access, err := manager.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	refresh, err := manager.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	if _, err := manager.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token verified under refresh secret: %v", err)
	}
	if _, err := manager.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token verified under access secret: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	otherCfg := testTokenConfig()
	otherCfg.AccessSecret = []byte("a different secret entirely")
	other, err := NewTokenManager(otherCfg)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	token, err := manager.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	if _, err := other.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }
	manager, err := NewTokenManager(testTokenConfig(), WithClock(clock))
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	token, err := manager.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	if _, err := manager.VerifyAccess(token); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}

	current = current.Add(16 * time.Minute)
	if _, err := manager.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	manager, err := NewTokenManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := manager.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
