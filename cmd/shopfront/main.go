package main

import (
	"log"
	"time"

	v1 "shopfront/api/v1"
	"shopfront/internal/acme"
	"shopfront/internal/auth"
	"shopfront/internal/config"
	"shopfront/internal/db"
	"shopfront/internal/directory"
	"shopfront/internal/dnscheck"
	"shopfront/internal/probe"
	"shopfront/internal/provision"
	"shopfront/internal/resolvecache"
	"shopfront/internal/router"
	"shopfront/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// 3. Initialize JWT
	auth.InitJWT(cfg.JWT.Secret)

	// 4. Resolution cache backend
	var resolveCache resolvecache.Cache
	switch cfg.ResolveCache.Backend {
	case "redis":
		rc, err := resolvecache.DialRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer rc.Close()
		resolveCache = rc
	default:
		resolveCache = resolvecache.NewMemory(cfg.ResolveCache.Capacity)
	}

	// 5. Domain directory and provisioning state machine
	dir := directory.NewService(db.GetDB())

	verifier, err := dnscheck.NewVerifier(dnscheck.Config{
		IngressIP:    cfg.Platform.IngressIP,
		ResolverAddr: cfg.DNS.ResolverAddr,
		Timeout:      time.Duration(cfg.DNS.TimeoutSec) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to initialize DNS verifier: %v", err)
	}

	prober := probe.NewProber(time.Duration(cfg.Probe.TimeoutSec) * time.Second)

	var provisioner provision.Provisioner
	switch cfg.Provisioner.Mode {
	case "acme":
		provisioner = acme.NewSelfManagedProvisioner(db.GetDB(),
			cfg.Provisioner.ACMEDirectoryURL, cfg.Provisioner.ACMEEmail, cfg.Provisioner.ACMEHTTPPort)
	default:
		provisioner = provision.NewHostingClient(cfg.Provisioner.APIBase,
			cfg.Provisioner.APIKey, time.Duration(cfg.Provisioner.TimeoutSec)*time.Second)
	}

	// 6. WebSocket push
	if err := ws.InitServer(); err != nil {
		log.Fatalf("Failed to initialize WebSocket server: %v", err)
	}

	orch := provision.NewOrchestrator(dir, verifier, prober, provisioner, ws.Notifier{}, resolveCache)

	// 7. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Custom-domain requests are classified and rewritten before any route
	// handler runs.
	r.Use(router.TenantResolver(r, router.Config{
		PlatformHosts: cfg.Platform.Hosts,
		Namespace:     cfg.Platform.Namespace,
		PositiveTTL:   time.Duration(cfg.ResolveCache.TTLSec) * time.Second,
		NegativeTTL:   time.Duration(cfg.ResolveCache.NegativeTTLSec) * time.Second,
	}, resolveCache, dir))

	// Socket.IO endpoint for dashboard clients
	r.GET("/socket.io/*any", gin.WrapH(ws.Server))
	r.POST("/socket.io/*any", gin.WrapH(ws.Server))

	v1.SetupRouter(r, cfg, dir, orch, resolveCache)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
