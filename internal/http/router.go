package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/http/handlers"
	"github.com/you/lendauth/internal/http/middleware"
	"github.com/you/lendauth/internal/metrics"
)

func BuildRouter(ah *handlers.AuthHandlers, ph *handlers.PolicyHandlers, auth domain.Authenticator, cb *middleware.CasbinMW, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), m.Instrument())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	a := r.Group("/auth")
	a.POST("/identity", ah.BeginIdentity)
	a.GET("/identity", ah.CheckIdentity)
	a.DELETE("/identity", ah.ClearIdentity)
	a.POST("/otp/send", ah.SendOTP)
	a.POST("/otp/verify", ah.VerifyOTP)
	a.GET("/status", ah.Status)
	a.PUT("/me/profile", ah.CompleteProfile)
	a.POST("/signout", ah.SignOut)
	a.POST("/signout/all", ah.SignOutAll)

	u := r.Group("/auth").Use(middleware.RequireUser(auth))
	u.GET("/me", ah.Me)
	u.GET("/sessions", ah.Sessions)

	agent := r.Group("/agent").Use(middleware.RequireUser(auth), cb.Enforce())
	agent.GET("/ping", ah.AgentPing)

	adm := r.Group("/admin").Use(middleware.RequireUser(auth), cb.Enforce())
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}
