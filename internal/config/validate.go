package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if strings.TrimSpace(c.Auth.IdentityField) == "" {
		return fmt.Errorf("auth.identity_field must not be empty")
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("auth.session_ttl must be >= 0 (got %v)", c.Auth.SessionTTL)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}

	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be >= 0 (got %d)", c.RateLimit.RequestsPerMinute)
	}

	if c.Util.ThrottleMin < 0 || c.Util.ThrottleMax < c.Util.ThrottleMin {
		return fmt.Errorf("util: throttle range %v..%v is invalid", c.Util.ThrottleMin, c.Util.ThrottleMax)
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	return nil
}

func (s *StoreConfig) validate() error {
	if s.DefaultPageSize <= 0 {
		return fmt.Errorf("default_page_size must be > 0 (got %d)", s.DefaultPageSize)
	}
	if strings.TrimSpace(s.UsersCollection) == "" || strings.TrimSpace(s.SessionsCollection) == "" {
		return fmt.Errorf("users_collection and sessions_collection must not be empty")
	}
	if s.UsersCollection == s.SessionsCollection {
		return fmt.Errorf("users_collection and sessions_collection must differ")
	}
	if s.WatchRules && s.RulesPath == "" {
		return fmt.Errorf("watch_rules requires rules_path")
	}
	return nil
}
