package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

// CasbinMW gates routes on the current user's role
type CasbinMW struct {
	policy domain.PolicyService
	log    logging.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policy domain.PolicyService, log logging.Logger) *CasbinMW {
	return &CasbinMW{policy: policy, log: log.With("component", "casbin")}
}

// Enforce returns the casbin authorization middleware. It must run after
// RequireUser.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		allowed, err := mw.policy.CheckPermission(user.Role(), path, method)
		if err != nil {
			mw.log.Error(c.Request.Context(), "authorization check failed",
				"user_id", user.ID, "path", path, "method", method, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			return
		}
		c.Next()
	}
}
