package v1

import (
	"shopfront/api/v1/domains"
	"shopfront/api/v1/middleware"
	"shopfront/api/v1/tenants"
	"shopfront/internal/config"
	"shopfront/internal/directory"
	"shopfront/internal/httpx"
	"shopfront/internal/provision"
	"shopfront/internal/resolvecache"

	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the API v1 routes and the internal storefront namespace
func SetupRouter(r *gin.Engine, cfg *config.Config, dir *directory.Service, orch *provision.Orchestrator, cache resolvecache.Cache) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		domainsHandler := domains.NewHandler(dir, orch, cache, cfg.Provisioner.CallbackKeyHash)

		// Authenticated by shared callback key, not JWT
		v1.POST("/domains/callback", domainsHandler.Callback)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			tenantsHandler := tenants.NewHandler(dir)
			protected.POST("/tenants", tenantsHandler.Create)
			protected.GET("/tenants", tenantsHandler.List)

			protected.POST("/domains/save", domainsHandler.Save)
			protected.POST("/domains/remove", domainsHandler.Remove)
			protected.GET("/domains/status", domainsHandler.Status)
		}
	}

	// Internal storefront namespace. Custom-domain requests are rewritten
	// here by the tenant resolver; the storefront renderer proper lives in a
	// separate service, so this just echoes the routing decision.
	r.GET("/"+cfg.Platform.Namespace+"/:slug/*path", storefrontHandler)
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// storefrontHandler answers rewritten storefront requests
func storefrontHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"store": c.Param("slug"),
		"path":  c.Param("path"),
		"host":  c.Request.Host,
	})
}
