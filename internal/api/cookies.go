package api

import (
	"net/http"
	"strings"
	"time"
)

// Token cookie names. Both cookies are HttpOnly so page scripts can never
// read them, and Secure whenever the request arrived over a secured channel.
const (
	accessCookieName  = "videotube_access"
	refreshCookieName = "videotube_refresh"
)

type CookieSecureMode int

const (
	CookieSecureAuto CookieSecureMode = iota
	CookieSecureAlways
)

// CookiePolicy controls the SameSite and Secure attributes applied to the
// token cookies.
type CookiePolicy struct {
	SameSite   http.SameSite
	SecureMode CookieSecureMode
}

// DefaultCookiePolicy matches production expectations: strict SameSite and
// Secure inferred from the transport.
func DefaultCookiePolicy() CookiePolicy {
	return CookiePolicy{
		SameSite:   http.SameSiteStrictMode,
		SecureMode: CookieSecureAuto,
	}
}

func (p CookiePolicy) secure(r *http.Request) bool {
	if p.SecureMode == CookieSecureAlways {
		return true
	}
	return isSecureRequest(r)
}

func (h *Handler) cookiePolicy() CookiePolicy {
	policy := h.CookiePolicy
	if policy.SameSite == 0 {
		policy.SameSite = http.SameSiteStrictMode
	}
	return policy
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, name, token string, ttl time.Duration, policy CookiePolicy) {
	if token == "" {
		return
	}
	maxAge := int(ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl).UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   policy.secure(r),
		SameSite: policy.SameSite,
	})
}

func clearTokenCookie(w http.ResponseWriter, r *http.Request, name string, policy CookiePolicy) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   policy.secure(r),
		SameSite: policy.SameSite,
	})
}

// setTokenCookies installs both credential artifacts on the response.
func (h *Handler) setTokenCookies(w http.ResponseWriter, r *http.Request, access, refresh string) {
	policy := h.cookiePolicy()
	setTokenCookie(w, r, accessCookieName, access, h.Tokens.AccessTTL(), policy)
	setTokenCookie(w, r, refreshCookieName, refresh, h.Tokens.RefreshTTL(), policy)
}

// clearTokenCookies removes both credential artifacts from the response.
func (h *Handler) clearTokenCookies(w http.ResponseWriter, r *http.Request) {
	policy := h.cookiePolicy()
	clearTokenCookie(w, r, accessCookieName, policy)
	clearTokenCookie(w, r, refreshCookieName, policy)
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	if r.URL != nil && strings.EqualFold(r.URL.Scheme, "https") {
		return true
	}
	return false
}
