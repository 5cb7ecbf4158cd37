package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/mocks"
	"github.com/you/lendauth/internal/services"
)

func newPolicyRouter(policy domain.PolicyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPolicyHandlers(policy)
	r := gin.New()
	r.GET("/admin/policies", h.List)
	r.POST("/admin/policies", h.Add)
	r.DELETE("/admin/policies", h.Remove)
	return r
}

func TestPolicyHandlers(t *testing.T) {
	svc := services.NewPolicyServiceWithEnforcer(mocks.NewMockCasbinEnforcer())
	r := newPolicyRouter(svc)

	w := doJSON(r, http.MethodGet, "/admin/policies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	body := map[string]string{"role": domain.RoleBorrower, "resource": "/loans/*", "action": "GET"}
	w = doJSON(r, http.MethodPost, "/admin/policies", body)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, svc.GetPolicies(), []string{domain.RoleBorrower, "/loans/*", "GET"})

	w = doJSON(r, http.MethodDelete, "/admin/policies", body)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, svc.GetPolicies(), []string{domain.RoleBorrower, "/loans/*", "GET"})

	w = doJSON(r, http.MethodPost, "/admin/policies", map[string]string{"role": domain.RoleAgent})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.UserMessage(domain.ErrInvalidPolicy), decode(t, w)["error"])
}

func TestPolicyHandlers_StoreFailure(t *testing.T) {
	policy := mocks.NewMockPolicyService()
	policy.AddPolicyFunc = func(string, string, string) error { return assert.AnError }

	w := doJSON(newPolicyRouter(policy), http.MethodPost, "/admin/policies",
		map[string]string{"role": domain.RoleAgent, "resource": "/agent/*", "action": "POST"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
