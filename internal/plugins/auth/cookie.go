package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the HTTP cookie that carries the signed session token.
const SessionCookieName = "bookdir_session"

// SessionCookie reads and writes the session cookie. The token is signed
// with the configured session secret so a forged or truncated cookie is
// treated as no cookie at all.
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	maxAge int
}

// NewSessionCookie creates a cookie codec keyed by secret. The HMAC key is
// derived with SHA-256 so any secret length yields a 32-byte key.
func NewSessionCookie(secret string, ttl time.Duration) *SessionCookie {
	hashKey := sha256.Sum256([]byte(secret))
	maxAge := int(ttl.Seconds())

	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(maxAge)

	return &SessionCookie{codec: codec, maxAge: maxAge}
}

// Encode signs token into a cookie value.
func (s *SessionCookie) Encode(token string) (string, error) {
	return s.codec.Encode(SessionCookieName, token)
}

// Decode verifies a cookie value and returns the token inside, or "" if the
// value is missing, tampered with or too old.
func (s *SessionCookie) Decode(value string) string {
	if value == "" {
		return ""
	}
	var token string
	if err := s.codec.Decode(SessionCookieName, value, &token); err != nil {
		return ""
	}
	return token
}

// Token reads the session token from the request cookie.
func (s *SessionCookie) Token(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return s.Decode(cookie.Value)
}

// Set writes the session cookie. The cookie is HttpOnly (JS can't read it),
// Secure if behind TLS, and SameSite=Lax.
func (s *SessionCookie) Set(c echo.Context, token string) error {
	value, err := s.Encode(token)
	if err != nil {
		return err
	}
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.maxAge,
	})
	return nil
}

// Clear removes the session cookie by setting MaxAge to -1.
func (s *SessionCookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
