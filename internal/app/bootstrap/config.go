// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for WardSync.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, auth_token_key, etc.
//   - Environment variables: WARDSYNC_MONGO_URI, WARDSYNC_AUTH_TOKEN_KEY, etc.
//   - Command-line flags: --mongo_uri, --auth_token_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "wardsync", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "auth_token_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC key for verifying auth tokens (must be strong in production)"},
	{Name: "auth_cookie_name", Default: "wardsync_session", Desc: "Cookie name checked when no bearer token is present"},

	{Name: "sweep_hour", Default: 3, Desc: "Wall-clock hour (0-23) the daily expiry sweep runs"},

	{Name: "rate_limit", Default: 60, Desc: "Mutating requests allowed per caller per window"},
	{Name: "rate_limit_window", Default: 60, Desc: "Rate limit window in seconds"},
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting on mutating assignment routes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, WARDSYNC_* for app), and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "WARDSYNC", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthTokenKey:   appValues.String("auth_token_key"),
		AuthCookieName: appValues.String("auth_cookie_name"),

		SweepHour: appValues.Int("sweep_hour"),

		RateLimit:        appValues.Int("rate_limit"),
		RateLimitWindow:  appValues.Int("rate_limit_window"),
		RateLimitEnabled: appValues.Bool("rate_limit_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.AuthTokenKey == "" {
		return fmt.Errorf("auth_token_key must be set")
	}
	if appCfg.SweepHour < 0 || appCfg.SweepHour > 23 {
		return fmt.Errorf("sweep_hour must be in 0..23, got %d", appCfg.SweepHour)
	}
	if appCfg.RateLimitEnabled && (appCfg.RateLimit <= 0 || appCfg.RateLimitWindow <= 0) {
		return fmt.Errorf("rate_limit and rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}
