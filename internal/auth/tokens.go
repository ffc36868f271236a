package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

// ErrInvalidToken is returned for any token that fails signature, structure,
// or expiry checks. Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// TokenConfig holds the signing material and lifetimes for both token kinds.
// It is constructed once at startup and treated as immutable afterwards.
// Access and refresh secrets are distinct so compromise of one does not
// compromise the other.
type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Validate reports misconfigured secret material. A failure here is fatal at
// startup, never a per-request condition.
func (c TokenConfig) Validate() error {
	if len(c.AccessSecret) == 0 {
		return errors.New("access token secret is required")
	}
	if len(c.RefreshSecret) == 0 {
		return errors.New("refresh token secret is required")
	}
	if c.AccessTTL <= 0 {
		return errors.New("access token ttl must be positive")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("refresh token ttl must be positive")
	}
	return nil
}

// AccessClaims are embedded in access tokens. Validity is stateless: the
// signature and expiry alone decide it.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the identity id. A refresh token is additionally
// checked against the value stored on the user record before it is honoured.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// TokenManager mints and verifies signed, time-bounded access and refresh
// tokens. It is safe for concurrent use.
type TokenManager struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenManager validates the configuration and returns a manager.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token config: %w", err)
	}
	manager := &TokenManager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}
	return manager, nil
}

// AccessTTL reports the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.cfg.AccessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.cfg.RefreshTTL
}

// IssueAccess mints a short-lived access token bound to the user identity.
func (m *TokenManager) IssueAccess(user models.User) (string, error) {
	now := m.now()
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.cfg.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefresh mints a long-lived refresh token carrying only the identity id.
func (m *TokenManager) IssueRefresh(userID string) (string, error) {
	now := m.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.cfg.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess checks the token against the access secret and returns the
// embedded claims. Any failure yields ErrInvalidToken.
func (m *TokenManager) VerifyAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(token, &claims, m.cfg.AccessSecret); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh checks the token against the refresh secret and returns the
// embedded claims. Any failure yields ErrInvalidToken.
func (m *TokenManager) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.parse(token, &claims, m.cfg.RefreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
