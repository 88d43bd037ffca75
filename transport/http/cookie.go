package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// refreshCookiePath keeps the refresh token off every request but its own endpoints
	refreshCookiePath = "/api/auth"
)

// CookieConfig controls the attributes of the session cookies
type CookieConfig struct {
	Domain string // empty for host-only cookies
	Secure bool   // always set Secure, otherwise only over TLS
}

func (cfg CookieConfig) secure(c *gin.Context) bool {
	return cfg.Secure || c.Request.TLS != nil
}

func (cfg CookieConfig) set(c *gin.Context, name, value, path string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   cfg.secure(c),
	})
}

func (cfg CookieConfig) clear(c *gin.Context, name, path string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   cfg.secure(c),
	})
}

func (cfg CookieConfig) setSession(c *gin.Context, accessToken string, accessTTL time.Duration, refreshToken string, refreshTTL time.Duration) {
	cfg.set(c, AccessTokenCookie, accessToken, "/", accessTTL)
	cfg.set(c, RefreshTokenCookie, refreshToken, refreshCookiePath, refreshTTL)
}

func (cfg CookieConfig) clearSession(c *gin.Context) {
	cfg.clear(c, AccessTokenCookie, "/")
	cfg.clear(c, RefreshTokenCookie, refreshCookiePath)
}
