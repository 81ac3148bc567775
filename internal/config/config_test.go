package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/shopfront")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PLATFORM_INGRESS_IP", "203.0.113.10")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MySQL.DSN == "" {
		t.Error("MySQL DSN should not be empty")
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}

	if cfg.Platform.Namespace != "stores" {
		t.Errorf("Expected default namespace 'stores', got %s", cfg.Platform.Namespace)
	}

	if cfg.ResolveCache.TTLSec != 300 {
		t.Errorf("Expected default cache TTL 300, got %d", cfg.ResolveCache.TTLSec)
	}

	if cfg.ResolveCache.NegativeTTLSec != 30 {
		t.Errorf("Expected default negative TTL 30, got %d", cfg.ResolveCache.NegativeTTLSec)
	}

	if cfg.ResolveCache.Capacity != 200 {
		t.Errorf("Expected default cache capacity 200, got %d", cfg.ResolveCache.Capacity)
	}
}

func TestLoad_MissingMySQLDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MYSQL_DSN", "")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when MYSQL_DSN is missing")
	}
}

func TestLoad_MissingIngressIP(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLATFORM_INGRESS_IP", "")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when PLATFORM_INGRESS_IP is missing")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PLATFORM_HOSTS", "app.shopfront.dev, Admin.Shopfront.Dev")
	t.Setenv("RESOLVE_CACHE_BACKEND", "redis")
	t.Setenv("PROVISIONER_MODE", "acme")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Redis.Addr != "redis.example.com:6379" {
		t.Errorf("Expected custom Redis addr, got %s", cfg.Redis.Addr)
	}

	if cfg.Redis.DB != 5 {
		t.Errorf("Expected Redis DB 5, got %d", cfg.Redis.DB)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTPAddr :9090, got %s", cfg.HTTPAddr)
	}

	if len(cfg.Platform.Hosts) != 2 {
		t.Fatalf("Expected 2 platform hosts, got %d", len(cfg.Platform.Hosts))
	}

	// Hosts are trimmed and lowercased for matching.
	if cfg.Platform.Hosts[1] != "admin.shopfront.dev" {
		t.Errorf("Expected lowercased host, got %s", cfg.Platform.Hosts[1])
	}

	if cfg.ResolveCache.Backend != "redis" {
		t.Errorf("Expected cache backend redis, got %s", cfg.ResolveCache.Backend)
	}

	if cfg.Provisioner.Mode != "acme" {
		t.Errorf("Expected provisioner mode acme, got %s", cfg.Provisioner.Mode)
	}
}

func TestLoadFromINI(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PLATFORM_INGRESS_IP", "")

	iniPath := t.TempDir() + "/config.ini"
	content := `[mysql]
dsn = user:pass@tcp(localhost:3306)/shopfront

[jwt]
secret = ini-secret

[platform]
ingress_ip = 203.0.113.10
hosts = app.shopfront.dev

[resolve_cache]
ttl_sec = 120
`
	if err := os.WriteFile(iniPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write INI file: %v", err)
	}

	cfg, err := LoadFromINI(iniPath)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}

	if cfg.JWT.Secret != "ini-secret" {
		t.Errorf("Expected JWT secret from INI, got %s", cfg.JWT.Secret)
	}

	if cfg.ResolveCache.TTLSec != 120 {
		t.Errorf("Expected cache TTL 120 from INI, got %d", cfg.ResolveCache.TTLSec)
	}

	// ENV takes priority over INI.
	t.Setenv("RESOLVE_CACHE_TTL_SEC", "60")
	cfg, err = LoadFromINI(iniPath)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}
	if cfg.ResolveCache.TTLSec != 60 {
		t.Errorf("Expected ENV to override INI, got %d", cfg.ResolveCache.TTLSec)
	}
}
