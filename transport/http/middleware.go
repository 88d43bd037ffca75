package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/service"
)

const sessionKey = "session"

type sessionContextKey struct{}

// SessionFromContext returns the session stored by the auth middleware
func SessionFromContext(ctx context.Context) (*core.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*core.Session)
	return session, ok && session != nil
}

// SessionFromGin returns the session stored by the auth middleware
func SessionFromGin(c *gin.Context) (*core.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := v.(*core.Session)
	return session, ok && session != nil
}

// extractAccessToken reads the access token from its cookie, then from the
// Authorization header. fromCookie reports where it was found.
func extractAccessToken(c *gin.Context) (token string, fromCookie bool) {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, true
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token), false
	}
	return "", false
}

// authenticate validates the access token and stores the session.
// On failure it clears a stale cookie and hands over to reject.
func authenticate(authService *service.AuthService, cookies CookieConfig, reject func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := extractAccessToken(c)

		session, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			if fromCookie {
				cookies.clear(c, AccessTokenCookie, "/")
			}
			reject(c, err)
			return
		}

		c.Set(sessionKey, session)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), sessionContextKey{}, session))

		c.Next()
	}
}

// AuthMiddleware protects API routes, answering 401 without a valid token
func AuthMiddleware(authService *service.AuthService, cookies CookieConfig) gin.HandlerFunc {
	return authenticate(authService, cookies, func(c *gin.Context, err error) {
		status := statusFor(core.KindOf(err))
		if status != http.StatusInternalServerError {
			status = http.StatusUnauthorized
		}
		c.AbortWithStatusJSON(status, gin.H{"error": core.PublicMessage(err)})
	})
}

// PageAuthMiddleware protects page routes, redirecting to loginPath without a valid token
func PageAuthMiddleware(authService *service.AuthService, cookies CookieConfig, loginPath string) gin.HandlerFunc {
	return authenticate(authService, cookies, func(c *gin.Context, err error) {
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	})
}

// RequestLogger logs one structured line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if session, ok := SessionFromGin(c); ok {
			attrs = append(attrs, slog.String("user_id", session.UserID))
		}
		logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
