package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL        MySQLConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Platform     PlatformConfig
	ResolveCache ResolveCacheConfig
	DNS          DNSConfig
	Probe        ProbeConfig
	Provisioner  ProvisionerConfig
	Migrate      bool
	HTTPAddr     string
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// PlatformConfig holds the platform's own identity: the ingress address
// tenant DNS must point at, the hosts served directly, and the internal
// storefront path namespace.
type PlatformConfig struct {
	IngressIP string
	Hosts     []string
	Namespace string
}

// ResolveCacheConfig holds domain resolution cache configuration
type ResolveCacheConfig struct {
	Backend        string // memory|redis
	TTLSec         int
	NegativeTTLSec int
	Capacity       int
}

// DNSConfig holds DNS verification configuration
type DNSConfig struct {
	ResolverAddr string
	TimeoutSec   int
}

// ProbeConfig holds liveness probe configuration
type ProbeConfig struct {
	TimeoutSec int
}

// ProvisionerConfig holds certificate provisioner configuration
type ProvisionerConfig struct {
	Mode             string // hosting|acme
	APIBase          string
	APIKey           string
	CallbackKeyHash  string
	ACMEDirectoryURL string
	ACMEEmail        string
	ACMEHTTPPort     string
	TimeoutSec       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "shopfront"),
		},
		Platform: PlatformConfig{
			IngressIP: getEnv("PLATFORM_INGRESS_IP", ""),
			Hosts:     splitHosts(getEnv("PLATFORM_HOSTS", "")),
			Namespace: getEnv("STOREFRONT_NAMESPACE", "stores"),
		},
		ResolveCache: ResolveCacheConfig{
			Backend:        getEnv("RESOLVE_CACHE_BACKEND", "memory"),
			TTLSec:         getEnvInt("RESOLVE_CACHE_TTL_SEC", 300),
			NegativeTTLSec: getEnvInt("RESOLVE_CACHE_NEGATIVE_TTL_SEC", 30),
			Capacity:       getEnvInt("RESOLVE_CACHE_CAPACITY", 200),
		},
		DNS: DNSConfig{
			ResolverAddr: getEnv("DNS_RESOLVER_ADDR", ""),
			TimeoutSec:   getEnvInt("DNS_TIMEOUT_SEC", 5),
		},
		Probe: ProbeConfig{
			TimeoutSec: getEnvInt("PROBE_TIMEOUT_SEC", 10),
		},
		Provisioner: ProvisionerConfig{
			Mode:             getEnv("PROVISIONER_MODE", "hosting"),
			APIBase:          getEnv("PROVISIONER_API_BASE", ""),
			APIKey:           getEnv("PROVISIONER_API_KEY", ""),
			CallbackKeyHash:  getEnv("PROVISIONER_CALLBACK_KEY_HASH", ""),
			ACMEDirectoryURL: getEnv("ACME_DIRECTORY_URL", ""),
			ACMEEmail:        getEnv("ACME_EMAIL", ""),
			ACMEHTTPPort:     getEnv("ACME_HTTP_PORT", "5002"),
			TimeoutSec:       getEnvInt("PROVISIONER_TIMEOUT_SEC", 15),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Platform.IngressIP == "" {
		return nil, fmt.Errorf("PLATFORM_INGRESS_IP is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitHosts(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		if h := strings.ToLower(strings.TrimSpace(p)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "shopfront"),
		},
		Platform: PlatformConfig{
			IngressIP: getValue("PLATFORM_INGRESS_IP", "platform", "ingress_ip", ""),
			Hosts:     splitHosts(getValue("PLATFORM_HOSTS", "platform", "hosts", "")),
			Namespace: getValue("STOREFRONT_NAMESPACE", "platform", "namespace", "stores"),
		},
		ResolveCache: ResolveCacheConfig{
			Backend:        getValue("RESOLVE_CACHE_BACKEND", "resolve_cache", "backend", "memory"),
			TTLSec:         getValueInt("RESOLVE_CACHE_TTL_SEC", "resolve_cache", "ttl_sec", 300),
			NegativeTTLSec: getValueInt("RESOLVE_CACHE_NEGATIVE_TTL_SEC", "resolve_cache", "negative_ttl_sec", 30),
			Capacity:       getValueInt("RESOLVE_CACHE_CAPACITY", "resolve_cache", "capacity", 200),
		},
		DNS: DNSConfig{
			ResolverAddr: getValue("DNS_RESOLVER_ADDR", "dns", "resolver_addr", ""),
			TimeoutSec:   getValueInt("DNS_TIMEOUT_SEC", "dns", "timeout_sec", 5),
		},
		Probe: ProbeConfig{
			TimeoutSec: getValueInt("PROBE_TIMEOUT_SEC", "probe", "timeout_sec", 10),
		},
		Provisioner: ProvisionerConfig{
			Mode:             getValue("PROVISIONER_MODE", "provisioner", "mode", "hosting"),
			APIBase:          getValue("PROVISIONER_API_BASE", "provisioner", "api_base", ""),
			APIKey:           getValue("PROVISIONER_API_KEY", "provisioner", "api_key", ""),
			CallbackKeyHash:  getValue("PROVISIONER_CALLBACK_KEY_HASH", "provisioner", "callback_key_hash", ""),
			ACMEDirectoryURL: getValue("ACME_DIRECTORY_URL", "provisioner", "acme_directory_url", ""),
			ACMEEmail:        getValue("ACME_EMAIL", "provisioner", "acme_email", ""),
			ACMEHTTPPort:     getValue("ACME_HTTP_PORT", "provisioner", "acme_http_port", "5002"),
			TimeoutSec:       getValueInt("PROVISIONER_TIMEOUT_SEC", "provisioner", "timeout_sec", 15),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Platform.IngressIP == "" {
		return nil, fmt.Errorf("PLATFORM_INGRESS_IP is required")
	}

	return cfg, nil
}
