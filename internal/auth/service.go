// Package auth implements the session-authentication core: password hashing,
// access/refresh token issue and verification, and the service orchestrating
// registration, login, logout, rotation, and password change.
//
// A user's session has two states. Logged out: no refresh token stored on the
// record. Active: exactly one valid refresh token stored. Login and refresh
// replace the stored value (immediately invalidating the previous one) and
// logout clears it. Access tokens are stateless; only signature and expiry
// decide their validity.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterParams carries the fields accepted at registration. Avatar and
// cover image are URL references; media upload is handled elsewhere.
type RegisterParams struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Service orchestrates the authentication flows against the datastore and
// token manager. It holds no per-request state and is safe for concurrent
// use.
type Service struct {
	store  storage.Repository
	tokens *TokenManager
}

// NewService constructs the auth service.
func NewService(store storage.Repository, tokens *TokenManager) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register validates the input, hashes the password, and persists a new user.
// Duplicate usernames or emails surface as a conflict from the datastore.
func (s *Service) Register(params RegisterParams) (models.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.TrimSpace(params.Email)
	fullName := strings.TrimSpace(params.FullName)
	if username == "" || email == "" || fullName == "" || strings.TrimSpace(params.Password) == "" {
		return models.User{}, apperr.Validation("all fields are required")
	}

	hashed, err := HashPassword(params.Password)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.store.CreateUser(storage.CreateUserParams{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     params.AvatarURL,
		CoverImageURL: params.CoverImageURL,
		PasswordHash:  hashed,
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login verifies the credentials and issues a fresh token pair. The new
// refresh token overwrites whatever was stored, which silently ends any
// previous session on the same account.
func (s *Service) Login(identifier, password string) (models.User, TokenPair, error) {
	if strings.TrimSpace(identifier) == "" {
		return models.User{}, TokenPair{}, apperr.Validation("email or username is required")
	}
	user, ok := s.store.FindUserByUsernameOrEmail(identifier)
	if !ok {
		return models.User{}, TokenPair{}, apperr.NotFound("user does not exist")
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return models.User{}, TokenPair{}, apperr.Auth("invalid password")
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	if err := s.store.SetRefreshToken(user.ID, pair.RefreshToken); err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return user, pair, nil
}

// Refresh rotates the refresh token: the presented value must both verify
// against the refresh secret and exactly match the single value stored on the
// user record. The swap is atomic, so of two concurrent refreshes with the
// same token only one succeeds; the other observes the rotated value and is
// rejected.
func (s *Service) Refresh(presented string) (TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return TokenPair{}, apperr.Auth("unauthorized request")
	}
	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return TokenPair{}, apperr.Auth("invalid refresh token")
	}
	user, ok := s.store.GetUser(claims.Subject)
	if !ok {
		return TokenPair{}, apperr.Auth("invalid refresh token")
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RotateRefreshToken(user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, storage.ErrStaleRefreshToken) {
			return TokenPair{}, apperr.Auth("refresh token is expired or used")
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// Logout clears the stored refresh token. Logging out an already logged-out
// identity is not an error.
func (s *Service) Logout(userID string) error {
	return s.store.ClearRefreshToken(userID)
}

// ChangePassword re-hashes and persists the new password after verifying the
// old one. The stored refresh token is left untouched, so the current session
// survives the change.
func (s *Service) ChangePassword(userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("new password is required")
	}
	user, ok := s.store.GetUser(userID)
	if !ok {
		return apperr.Auth("unauthorized request")
	}
	if !VerifyPassword(oldPassword, user.PasswordHash) {
		return apperr.Auth("old password is incorrect")
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.SetUserPassword(userID, hashed)
}

func (s *Service) issuePair(user models.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
