package domains

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shopfront/internal/auth"
	"shopfront/internal/directory"
	"shopfront/internal/domainutil"
	"shopfront/internal/httpx"
	"shopfront/internal/provision"
	"shopfront/internal/resolvecache"
)

// SaveDomainRequest represents the request body for attaching a custom domain
type SaveDomainRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
	Domain   string `json:"domain" binding:"required"`
}

// RemoveDomainRequest represents the request body for detaching a domain
type RemoveDomainRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
}

// CallbackRequest represents the issuance callback from the certificate
// provisioner
type CallbackRequest struct {
	Domain string `json:"domain" binding:"required"`
	Key    string `json:"key" binding:"required"`
}

// Handler handles custom domain endpoints
type Handler struct {
	dir             *directory.Service
	orch            *provision.Orchestrator
	cache           resolvecache.Cache
	callbackKeyHash string
}

// NewHandler creates a new domains handler
func NewHandler(dir *directory.Service, orch *provision.Orchestrator, cache resolvecache.Cache, callbackKeyHash string) *Handler {
	return &Handler{
		dir:             dir,
		orch:            orch,
		cache:           cache,
		callbackKeyHash: callbackKeyHash,
	}
}

// Save handles POST /api/v1/domains/save
func (h *Handler) Save(c *gin.Context) {
	var req SaveDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}

	normalized := domainutil.Normalize(req.Domain)
	if result := domainutil.Validate(normalized); !result.Valid {
		httpx.FailErr(c, httpx.ErrInvalidDomain(result.Reason))
		return
	}

	if err := h.dir.SetDomain(c.Request.Context(), req.TenantID, normalized); err != nil {
		switch {
		case errors.Is(err, directory.ErrTenantNotFound):
			httpx.FailErr(c, httpx.ErrNotFound("tenant not found"))
		case errors.Is(err, directory.ErrDomainTaken):
			httpx.FailErr(c, httpx.ErrAlreadyExists("domain is already in use by another store"))
		default:
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to save domain", err))
		}
		return
	}

	// The domain may have been routing for a previous owner.
	h.cache.Invalidate(normalized)

	httpx.OK(c, gin.H{
		"tenantId": req.TenantID,
		"domain":   normalized,
		"status":   "pending",
	})
}

// Remove handles POST /api/v1/domains/remove
func (h *Handler) Remove(c *gin.Context) {
	var req RemoveDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}

	rec, err := h.dir.FindByTenant(c.Request.Context(), req.TenantID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load domain", err))
		return
	}

	if err := h.dir.ClearDomain(c.Request.Context(), req.TenantID); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to remove domain", err))
		return
	}

	// Stop routing the old domain immediately instead of waiting for TTL.
	if rec != nil && rec.Domain != nil {
		h.cache.Invalidate(*rec.Domain)
	}

	httpx.OK(c, gin.H{
		"tenantId": req.TenantID,
	})
}

// Status handles GET /api/v1/domains/status
func (h *Handler) Status(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("parameter 'tenantId' is required"))
		return
	}

	result, err := h.orch.CheckStatus(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, provision.ErrNoDomain) {
			httpx.FailErr(c, httpx.ErrNotFound("no custom domain configured for this tenant"))
			return
		}
		httpx.FailErr(c, httpx.ErrInternalError("status check failed", err))
		return
	}

	httpx.OK(c, result)
}

// Callback handles POST /api/v1/domains/callback, the issuance notification
// from the certificate provisioner.
func (h *Handler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}

	if h.callbackKeyHash == "" {
		httpx.FailErr(c, httpx.ErrForbidden("callback endpoint is not enabled"))
		return
	}
	if err := auth.CompareCallbackKey(h.callbackKeyHash, req.Key); err != nil {
		httpx.FailErr(c, httpx.ErrUnauthorized("invalid callback key"))
		return
	}

	normalized := domainutil.Normalize(req.Domain)
	updated, err := h.orch.ConfirmIssuedDomain(c.Request.Context(), normalized)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to process callback", err))
		return
	}

	httpx.OK(c, gin.H{
		"domain":  normalized,
		"updated": updated,
	})
}
