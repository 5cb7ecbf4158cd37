package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
)

const userKey = "current_user"

// RequireUser resolves the session cookie to a user and stores it on the
// context. Requests without a live session are rejected with 401.
func RequireUser(auth domain.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c.Request.Context(), Jar(c))
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}
