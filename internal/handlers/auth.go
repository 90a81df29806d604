package handlers

import (
	"net/http"

	"authgate/internal/config"
	"authgate/internal/middleware"
	"authgate/internal/services"
	"authgate/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	refreshTokenCookie = "refreshToken"
	sessionIDCookie    = "sessionId"
)

type AuthHandler struct {
	auth *services.AuthService
	cfg  *config.Config
}

func NewAuthHandler(auth *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// setAuthCookies attaches the refresh token and session id as httpOnly
// cookies. They live for the full refresh window; the browser never sees
// them from script.
func (h *AuthHandler) setAuthCookies(c *gin.Context, refreshToken, sessionID string) {
	maxAge := int(h.cfg.JWT.RefreshTTL().Seconds())
	secure := h.cfg.Server.Mode == "release"

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, refreshToken, maxAge, "/", "", secure, true)
	c.SetCookie(sessionIDCookie, sessionID, maxAge, "/", "", secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.Server.Mode == "release"

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(sessionIDCookie, "", -1, "/", "", secure, true)
}

func deviceMeta(c *gin.Context) services.DeviceMeta {
	name := c.GetHeader("X-Device-Name")
	if name == "" {
		name = c.Request.UserAgent()
	}
	return services.DeviceMeta{
		UserAgent:  c.Request.UserAgent(),
		IP:         c.ClientIP(),
		DeviceName: name,
	}
}

// Register creates a new user account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BadRequestWith("Validation failed", err.Error()))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, "User registered successfully", gin.H{"user": user})
}

// Login authenticates a user and opens a device session
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BadRequestWith("Validation failed", err.Error()))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &req, deviceMeta(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.setAuthCookies(c, result.RefreshToken, result.Session.ID)
	response.OK(c, "Login successful", gin.H{
		"accessToken": result.AccessToken,
		"user":        result.User,
	})
}

// Refresh rotates the refresh token and mints a new access token
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil || refreshToken == "" {
		response.Fail(c, response.Unauthorized("Refresh token not provided"))
		return
	}
	sessionID, err := c.Cookie(sessionIDCookie)
	if err != nil || sessionID == "" {
		response.Fail(c, response.Unauthorized("Session id not provided"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), sessionID, refreshToken)
	if err != nil {
		h.clearAuthCookies(c)
		response.Fail(c, err)
		return
	}

	h.setAuthCookies(c, result.RefreshToken, sessionID)
	response.OK(c, "Token refreshed", gin.H{"accessToken": result.AccessToken})
}

// Logout revokes the current device session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(sessionIDCookie); err == nil && sessionID != "" {
		if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
			response.Fail(c, err)
			return
		}
	}

	h.clearAuthCookies(c)
	response.OK(c, "Logged out successfully", nil)
}

// LogoutAll revokes every session owned by the authenticated user
// POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	count, err := h.auth.LogoutAll(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.clearAuthCookies(c)
	response.OK(c, "Logged out from all devices", gin.H{"sessionsRevoked": count})
}

// Devices lists the user's active sessions
// GET /api/v1/auth/devices
func (h *AuthHandler) Devices(c *gin.Context) {
	sessions, err := h.auth.Devices(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Active sessions", gin.H{"devices": sessions})
}

// LogoutDevice revokes one of the user's own sessions by id
// DELETE /api/v1/auth/devices/:sessionId
func (h *AuthHandler) LogoutDevice(c *gin.Context) {
	sessionID := c.Param("sessionId")
	err := h.auth.LogoutDevice(c.Request.Context(), middleware.GetUserID(c), sessionID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	// Revoking the session this request rode in on also clears its cookies.
	if current, cerr := c.Cookie(sessionIDCookie); cerr == nil && current == sessionID {
		h.clearAuthCookies(c)
	}

	response.OK(c, "Device logged out", nil)
}

// Profile returns the authenticated user
// GET /api/v1/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.auth.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Profile", gin.H{"user": user})
}
