package auth

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/apperror"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
	contextKeyToken   = "auth_token"
)

// LoadSession returns middleware that resolves the session cookie when one
// is present and stores the session in the request context. Requests without
// a valid session pass through anonymously and a stale cookie is cleared.
// If the session store itself fails the request also continues anonymously,
// keeping the cookie, so open routes and logout still work.
func LoadSession(service AuthService, cookie *SessionCookie) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cookie.Token(c)
			if token == "" {
				return next(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				if appErr, ok := apperror.As(err); !ok || appErr.Code >= 500 {
					slog.Warn("session store unavailable, continuing anonymously",
						slog.Any("error", err),
						slog.String("path", c.Request().URL.Path),
					)
					c.Set(contextKeyToken, token)
					return next(c)
				}
				cookie.Clear(c)
				return next(c)
			}

			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)
			c.Set(contextKeyToken, token)

			return next(c)
		}
	}
}

// RequireAuth returns middleware that rejects requests without a session
// with a 401. It must run after LoadSession.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetSession(c) == nil {
				return apperror.NewUnauthorized("please log in first")
			}
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

func getSessionToken(c echo.Context) string {
	token, _ := c.Get(contextKeyToken).(string)
	return token
}
