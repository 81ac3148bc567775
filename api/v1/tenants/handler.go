package tenants

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shopfront/internal/directory"
	"shopfront/internal/httpx"
)

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Handler handles tenant endpoints
type Handler struct {
	dir *directory.Service
}

// NewHandler creates a new tenants handler
func NewHandler(dir *directory.Service) *Handler {
	return &Handler{dir: dir}
}

// Create handles POST /api/v1/tenants
func (h *Handler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}

	tenant, err := h.dir.CreateTenant(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrInvalidSlug):
			httpx.FailErr(c, httpx.ErrParamInvalid("slug must be lowercase letters, digits and hyphens"))
		case errors.Is(err, directory.ErrSlugTaken):
			httpx.FailErr(c, httpx.ErrAlreadyExists("slug is already in use"))
		default:
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to create tenant", err))
		}
		return
	}

	httpx.OK(c, tenant)
}

// List handles GET /api/v1/tenants
func (h *Handler) List(c *gin.Context) {
	list, err := h.dir.ListTenants(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list tenants", err))
		return
	}

	httpx.OK(c, gin.H{
		"items": list,
		"total": len(list),
	})
}
