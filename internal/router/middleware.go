package router

import (
	"context"
	"log"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shopfront/internal/domainutil"
	"shopfront/internal/httpx"
	"shopfront/internal/resolvecache"
)

// DomainResolver looks up which tenant a custom domain belongs to. Only live
// domains resolve; an empty slug with a nil error means nobody owns it.
type DomainResolver interface {
	FindLiveByDomain(ctx context.Context, candidates []string) (string, error)
}

// Config controls the tenant resolution middleware.
type Config struct {
	// PlatformHosts are the hosts served directly (dashboard, API). Requests
	// for these skip custom-domain resolution entirely.
	PlatformHosts []string
	// Namespace is the internal path prefix storefront routes live under,
	// e.g. "stores" for /stores/:slug/*.
	Namespace string
	// PositiveTTL caches successful resolutions.
	PositiveTTL time.Duration
	// NegativeTTL caches failed resolutions, shorter so a domain going live
	// is picked up quickly.
	NegativeTTL time.Duration
}

var staticPrefixes = []string{"/assets/", "/static/", "/favicon.ico", "/robots.txt"}

// TenantResolver maps the request Host to a tenant and rewrites the request
// in place to the tenant's storefront namespace. The visitor keeps the custom
// domain in their address bar; no redirect is ever issued.
//
// The rewrite re-enters the engine via HandleContext, so the first check must
// bail out of already-rewritten requests or the middleware would loop.
func TenantResolver(engine *gin.Engine, cfg Config, cache resolvecache.Cache, resolver DomainResolver) gin.HandlerFunc {
	namespacePrefix := "/" + cfg.Namespace + "/"

	platform := make(map[string]bool, len(cfg.PlatformHosts))
	for _, h := range cfg.PlatformHosts {
		platform[strings.ToLower(h)] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, namespacePrefix) {
			c.Next()
			return
		}
		if isStaticAsset(path) {
			c.Next()
			return
		}

		host := requestHost(c.Request)
		if host == "" || platform[host] {
			c.Next()
			return
		}

		normalized := domainutil.Normalize(host)

		if slug, negative, ok := cache.Get(normalized); ok {
			if negative {
				rejectUnknownDomain(c)
				return
			}
			rewrite(engine, c, cfg.Namespace, slug)
			return
		}

		// The stored form is canonical (no www), but tenants point both the
		// bare and www forms at us, and some store the www form verbatim.
		candidates := []string{normalized, "www." + normalized, host}
		slug, err := resolver.FindLiveByDomain(c.Request.Context(), candidates)
		if err != nil {
			log.Printf("[TenantResolver] lookup failed for %s: %v", host, err)
			httpx.FailErr(c, httpx.ErrInternalError("domain resolution failed", err))
			c.Abort()
			return
		}

		if slug == "" {
			cache.SetNegative(normalized, cfg.NegativeTTL)
			rejectUnknownDomain(c)
			return
		}

		cache.Set(normalized, slug, cfg.PositiveTTL)
		rewrite(engine, c, cfg.Namespace, slug)
	}
}

// rewrite rebases the request path under the storefront namespace and re-runs
// routing. The original path and query survive; only the prefix changes.
func rewrite(engine *gin.Engine, c *gin.Context, namespace, slug string) {
	c.Request.URL.Path = "/" + namespace + "/" + slug + c.Request.URL.Path
	engine.HandleContext(c)
	c.Abort()
}

func rejectUnknownDomain(c *gin.Context) {
	httpx.FailErr(c, httpx.ErrNotFound("no store configured for this domain"))
	c.Abort()
}

// requestHost lowercases the Host header and strips any port.
func requestHost(r *http.Request) string {
	host := strings.ToLower(strings.TrimSpace(r.Host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}

// isStaticAsset matches shared asset paths that never belong to a tenant:
// the framework asset prefixes, and anything whose final segment carries a
// file extension.
func isStaticAsset(p string) bool {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return path.Ext(p) != ""
}
