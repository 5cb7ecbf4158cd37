package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
)

type PolicyHandlers struct{ policy domain.PolicyService }

func NewPolicyHandlers(policy domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policy: policy}
}

type policyReq struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.policy.GetPolicies()})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		abortWith(c, domain.ErrInvalidPolicy)
		return
	}
	if err := h.policy.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		abortWith(c, domain.ErrInvalidPolicy)
		return
	}
	if err := h.policy.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
