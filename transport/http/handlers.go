package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookies     CookieConfig
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookies CookieConfig, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// Login returns the sign-in handler for wallets of the given chain
func (h *AuthHandlers) Login(chain core.Chain) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		result, err := h.authService.Login(c.Request.Context(), service.Credentials{
			Chain:     chain,
			PublicKey: req.PublicKey,
			Message:   req.Message,
			Signature: req.Signature,
		})
		if err != nil {
			h.writeError(c, err)
			return
		}

		h.respondSession(c, "Authentication successful", result)
	}
}

// Challenge returns a challenge built from the server clock
func (h *AuthHandlers) Challenge(c *gin.Context) {
	message, ts := h.authService.Challenge()
	c.JSON(http.StatusOK, ChallengeResponse{
		Message:   message,
		Timestamp: ts.UnixMilli(),
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshToken, ok := h.refreshToken(c)
	if !ok {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if core.KindOf(err) == core.KindAuth {
			h.cookies.clear(c, RefreshTokenCookie, refreshCookiePath)
		}
		h.writeError(c, err)
		return
	}

	h.respondSession(c, "Session refreshed", result)
}

// Logout handles session logout. It succeeds without any credentials.
func (h *AuthHandlers) Logout(c *gin.Context) {
	refreshToken, ok := h.refreshToken(c)
	if !ok {
		return
	}

	// The access token is optional, it only names the user when no refresh token is sent
	var session *core.Session
	if token, _ := extractAccessToken(c); token != "" {
		session, _ = h.authService.ValidateAccessToken(c.Request.Context(), token)
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken, session); err != nil {
		h.writeError(c, err)
		return
	}

	h.cookies.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the session carried by the access token
func (h *AuthHandlers) Me(c *gin.Context) {
	session, ok := SessionFromGin(c)
	if !ok {
		h.writeError(c, core.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		PublicKey: session.PublicKey,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	})
}

// Profile returns the stored identity of the caller
func (h *AuthHandlers) Profile(c *gin.Context) {
	session, ok := SessionFromGin(c)
	if !ok {
		h.writeError(c, core.ErrUnauthenticated)
		return
	}

	identity, err := h.authService.Profile(c.Request.Context(), session.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(identity))
}

// UpdateProfile changes the display name and/or email of the caller
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	session, ok := SessionFromGin(c)
	if !ok {
		h.writeError(c, core.ErrUnauthenticated)
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity, err := h.authService.UpdateProfile(c.Request.Context(), session.UserID, req.Name, req.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"profile": newProfileResponse(identity),
	})
}

// Healthz reports liveness
func (h *AuthHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandlers) respondSession(c *gin.Context, message string, result *service.LoginResult) {
	accessTTL := h.authService.AccessTTL()
	h.cookies.setSession(c, result.AccessToken, accessTTL, result.RefreshToken, h.authService.RefreshTTL())

	c.JSON(http.StatusOK, LoginResponse{
		Message:      message,
		User:         newUserResponse(result.Identity),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
		IsNewAccount: result.IsNewAccount,
	})
}

// refreshToken reads the refresh token from its cookie, falling back to the body.
// It writes the error response itself and reports false on a malformed body.
func (h *AuthHandlers) refreshToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(RefreshTokenCookie); err == nil && token != "" {
		return token, true
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return "", false
	}
	return req.RefreshToken, true
}

// writeError maps the error kind to a status and writes {"error": msg}.
// Internal causes are logged and never sent to the client.
func (h *AuthHandlers) writeError(c *gin.Context, err error) {
	status := statusFor(core.KindOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": core.PublicMessage(err)})
}

func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindAuth:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newProfileResponse(identity *core.Identity) ProfileResponse {
	return ProfileResponse{
		User:      newUserResponse(identity),
		Chain:     identity.Chain,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
}
