// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, log level); AppConfig is everything
// specific to this service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Auth token verification. Tokens are issued by the external auth
	// service; this service only verifies them.
	AuthTokenKey   string // HMAC key shared with the auth service
	AuthCookieName string // Cookie fallback for browser clients

	// Expiry sweep configuration
	SweepHour int // Wall-clock hour (0-23) the daily sweep fires

	// Rate limiting for mutating assignment routes
	RateLimit        int // Requests allowed per window per caller
	RateLimitWindow  int // Window length in seconds
	RateLimitEnabled bool
}
