package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CookieName is the browser-session cookie that binds a browser to its
// server-side runtime.
const CookieName = "storefront_session"

// ContextKeySessionID is where the middleware stores the session ID on the
// echo context.
const ContextKeySessionID = "session_id"

// BrowserSession validates the signed session cookie and injects the session
// ID into the request context. A missing, expired, or tampered cookie gets a
// freshly minted identity; the request proceeds as a new anonymous browser.
func BrowserSession(secret string, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(CookieName); err == nil {
				sid = parseSessionToken(cookie.Value, secret)
			}
			if sid == "" {
				sid = uuid.NewString()
				token, err := signSessionToken(sid, secret, ttl)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to establish session")
				}
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(ContextKeySessionID, sid)
			return next(c)
		}
	}
}

// SessionID extracts the session ID injected by BrowserSession.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ContextKeySessionID).(string)
	return sid
}

func signSessionToken(sid, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// parseSessionToken returns the embedded session ID, or "" for any invalid
// token. Invalid never fails the request; the browser just starts over.
func parseSessionToken(token, secret string) string {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}
