package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Auth      AuthConfig      `yaml:"auth"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Util      UtilConfig      `yaml:"util"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"3030"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" env-default:"1048576"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET, POST, PUT, DELETE, OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"X-Requested-With, X-HTTP-Method-Override, Content-Type, Accept, X-Authorization, X-Admin"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// AuthConfig holds session token and password settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"docstore"`
	// SessionTTL bounds access token lifetime. Zero means tokens live as
	// long as their session record.
	SessionTTL       time.Duration `yaml:"session_ttl"        env:"AUTH_SESSION_TTL"        env-default:"24h"`
	PasswordHashCost int           `yaml:"password_hash_cost" env:"AUTH_PASSWORD_HASH_COST" env-default:"10"`
	// IdentityField is the user field that identifies an account.
	IdentityField string `yaml:"identity_field" env:"AUTH_IDENTITY_FIELD" env-default:"email"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	SeedPath        string `yaml:"seed_path"         env:"STORE_SEED_PATH"`
	RulesPath       string `yaml:"rules_path"        env:"STORE_RULES_PATH"`
	WatchRules      bool   `yaml:"watch_rules"       env:"STORE_WATCH_RULES"       env-default:"false"`
	UsersCollection string `yaml:"users_collection"  env:"STORE_USERS_COLLECTION"  env-default:"users"`
	// SessionsCollection lives in the protected store next to users.
	SessionsCollection string `yaml:"sessions_collection" env:"STORE_SESSIONS_COLLECTION" env-default:"sessions"`
	DefaultPageSize    int    `yaml:"default_page_size"   env:"STORE_DEFAULT_PAGE_SIZE"   env-default:"10"`
}

// DatabaseConfig holds the optional PostgreSQL seed source. An empty DSN
// disables it.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

// RateLimitConfig holds per-IP rate limiting settings. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"RATE_LIMIT_RPM"     env-default:"0"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"    env:"RATE_LIMIT_CLEANUP" env-default:"5m"`
}

// UtilConfig holds the initial values of runtime toggles.
type UtilConfig struct {
	Throttle    bool          `yaml:"throttle"     env:"UTIL_THROTTLE"     env-default:"false"`
	ThrottleMin time.Duration `yaml:"throttle_min" env:"UTIL_THROTTLE_MIN" env-default:"500ms"`
	ThrottleMax time.Duration `yaml:"throttle_max" env:"UTIL_THROTTLE_MAX" env-default:"1000ms"`
}
