package auth

import (
	"net/http"
	"time"

	"github.com/shoply-app/shoply-backend/pkg/config"
)

const (
	// CookieAccessToken carries the short-lived access JWT.
	CookieAccessToken = "access_token"
	// CookieRefreshToken carries the long-lived refresh JWT.
	CookieRefreshToken = "refresh_token"
)

// NewAccessCookie builds the httpOnly cookie carrying the access token.
func NewAccessCookie(cfg config.JWTConfig, token string) *http.Cookie {
	return sessionCookie(cfg, CookieAccessToken, token, cfg.AccessTokenTTL())
}

// NewRefreshCookie builds the httpOnly cookie carrying the refresh token.
func NewRefreshCookie(cfg config.JWTConfig, token string) *http.Cookie {
	return sessionCookie(cfg, CookieRefreshToken, token, cfg.RefreshTokenTTL())
}

// ClearSessionCookies expires both session cookies on the response.
func ClearSessionCookies(cfg config.JWTConfig, w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie(cfg, CookieAccessToken, "", -time.Hour))
	http.SetCookie(w, sessionCookie(cfg, CookieRefreshToken, "", -time.Hour))
}

func sessionCookie(cfg config.JWTConfig, name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	} else if ttl < 0 {
		c.MaxAge = -1
	}
	return c
}
