package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/http/middleware"
	"github.com/you/lendauth/internal/logging"
)

// AuthHandlers exposes the sign-in pipeline over HTTP. Every handler works
// on the request's cookie jar; no token ever appears in a response body.
type AuthHandlers struct {
	identity domain.IdentityService
	otp      domain.OTPService
	sessions domain.SessionService
	auth     domain.Authenticator
	log      logging.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(
	identity domain.IdentityService,
	otp domain.OTPService,
	sessions domain.SessionService,
	auth domain.Authenticator,
	log logging.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		identity: identity,
		otp:      otp,
		sessions: sessions,
		auth:     auth,
		log:      log.With("component", "http"),
	}
}

// IdentityRequest starts a sign-in for an identifier
type IdentityRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Method     string `json:"method" binding:"required"`
}

// SendRequest carries the optional locale for the phone channel
type SendRequest struct {
	Locale string `json:"locale"`
}

// VerifyRequest carries the submitted code and optional device details
type VerifyRequest struct {
	Code   string            `json:"code" binding:"required"`
	Device map[string]string `json:"device,omitempty"`
}

// ProfileRequest completes the minimal registration
type ProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// BeginIdentity handles POST /auth/identity
func (h *AuthHandlers) BeginIdentity(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method, err := domain.ParseMethod(req.Method)
	if err != nil {
		abortWith(c, err)
		return
	}
	if _, err := h.identity.Begin(c.Request.Context(), middleware.Jar(c), req.Identifier, method); err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "identity recorded",
			"method":  method,
		},
	})
}

// CheckIdentity handles GET /auth/identity
func (h *AuthHandlers) CheckIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"in_progress": h.identity.Check(c.Request.Context(), middleware.Jar(c)),
		},
	})
}

// ClearIdentity handles DELETE /auth/identity
func (h *AuthHandlers) ClearIdentity(c *gin.Context) {
	h.identity.Clear(c.Request.Context(), middleware.Jar(c))
	c.Status(http.StatusNoContent)
}

// SendOTP handles POST /auth/otp/send
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req SendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res := h.otp.Send(c.Request.Context(), middleware.Jar(c), req.Locale)
	if !res.Success() {
		c.JSON(statusFor(res.Err), gin.H{"error": res.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"outcome": res.Outcome,
			"method":  res.Method,
			"message": res.Message,
		},
	})
}

// VerifyOTP handles POST /auth/otp/verify
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := domain.RequestMetadata{
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
		DeviceInfo: req.Device,
	}
	res := h.otp.Verify(c.Request.Context(), middleware.Jar(c), req.Code, meta)
	if !res.Success() {
		c.JSON(statusFor(res.Err), gin.H{"error": res.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"session": res.Session,
			"user":    res.User,
		},
	})
}

// Status handles GET /auth/status
func (h *AuthHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"authenticated": h.auth.IsAuthenticated(c.Request.Context(), middleware.Jar(c)),
		},
	})
}

// Me handles GET /auth/me (requires authentication)
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, domain.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user.Info()})
}

// CompleteProfile handles PUT /auth/me/profile
func (h *AuthHandlers) CompleteProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.CompleteProfile(c.Request.Context(), middleware.Jar(c), req.FirstName, req.LastName)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user.Info()})
}

// Sessions handles GET /auth/sessions (requires authentication)
func (h *AuthHandlers) Sessions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, domain.ErrSessionNotFound)
		return
	}

	sessions, err := h.sessions.ListActive(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error(c.Request.Context(), "failed to list sessions", "user_id", user.ID, "error", err)
		abortWith(c, err)
		return
	}

	out := make([]domain.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// SignOut handles POST /auth/signout
func (h *AuthHandlers) SignOut(c *gin.Context) {
	h.writeSignOut(c, h.auth.SignOut(c.Request.Context(), middleware.Jar(c)))
}

// SignOutAll handles POST /auth/signout/all
func (h *AuthHandlers) SignOutAll(c *gin.Context) {
	h.writeSignOut(c, h.auth.SignOutEverywhere(c.Request.Context(), middleware.Jar(c)))
}

func (h *AuthHandlers) writeSignOut(c *gin.Context, res domain.SignOutResult) {
	switch {
	case res.Success:
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": res.Message}})
	case res.Message == domain.MessageNoUserToSignOut:
		c.JSON(http.StatusUnauthorized, gin.H{"error": res.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Message})
	}
}

// AgentPing handles GET /agent/ping, the smallest role-gated surface
func (h *AuthHandlers) AgentPing(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, domain.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "pong",
			"role":    user.Role(),
		},
	})
}
