package config

import (
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Mode says whether a backing service runs against its real dependency or an
// in-memory substitute. Modes are resolved once at startup and never change.
type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

type Config struct {
	Port           string
	Environment    string   // ENV: production, development, test
	Host           string   // raw HOST env (e.g. https://api.lifetrack.app)
	AllowedHost    string   // hostname only; drives the production host check, empty leaves it off
	FrontendURL    string
	AllowedOrigins []string // CORS allow list, from ALLOWED_ORIGINS or FRONTEND_URL
	MockMode       bool     // MOCK_MODE=true forces every adapter to in-memory

	MongoURI      string // entry container; empty means in-memory entries
	MongoDatabase string
	PostgresURI   string // user accounts; empty means in-memory users
	RedisURI      string // cache + event fan-out; empty means in-process only

	JWTSecret string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	TextAnalyticsEndpoint string
	TextAnalyticsKey      string

	TelemetryConnString string // empty disables the tracker and /metrics
}

// Load reads configuration from the environment. Every cloud credential is
// optional: an absent value selects the mock implementation for that adapter
// so the service stays runnable without live credentials.
func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "")

	// The host check only runs in production; development hosts vary.
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		if u := strings.TrimSpace(getEnv("FRONTEND_URL", "http://localhost:3000")); u != "" {
			allowedOrigins = append(allowedOrigins, u)
		}
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		Host:           host,
		AllowedHost:    allowedHost,
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		MockMode:       parseBool(getEnv("MOCK_MODE", "false")),

		MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "")),
		MongoDatabase: getEnv("MONGODB_DATABASE", "lifetrack"),
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		TextAnalyticsEndpoint: getEnv("TEXT_ANALYTICS_ENDPOINT", ""),
		TextAnalyticsKey:      getEnv("TEXT_ANALYTICS_KEY", ""),

		TelemetryConnString: getEnv("TELEMETRY_CONNECTION_STRING", ""),
	}
}

var portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Match(portPattern)),
		validation.Field(&c.Environment, validation.Required,
			validation.In("development", "production", "test")),
		validation.Field(&c.JWTSecret, validation.Required, validation.Length(8, 0)),
		validation.Field(&c.MongoDatabase, validation.Required),
	)
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Modes is the startup-resolved mode of every backing service. It is computed
// once in main, logged, wired into the adapters, and reported by /health;
// business logic never branches on it at runtime.
type Modes struct {
	Entries   Mode `json:"entries"`
	Users     Mode `json:"users"`
	Cache     Mode `json:"cache"`
	Blobs     Mode `json:"blobs"`
	Sentiment Mode `json:"sentiment"`
	Telemetry Mode `json:"telemetry"`
}

// ResolveModes picks live or mock per adapter: MOCK_MODE forces everything to
// mock, otherwise each adapter goes live only when its credentials are set.
func (c *Config) ResolveModes() Modes {
	pick := func(haveCreds bool) Mode {
		if c.MockMode || !haveCreds {
			return ModeMock
		}
		return ModeLive
	}
	return Modes{
		Entries:   pick(c.MongoURI != ""),
		Users:     pick(c.PostgresURI != ""),
		Cache:     pick(c.RedisURI != ""),
		Blobs:     pick(c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""),
		Sentiment: pick(c.TextAnalyticsEndpoint != "" && c.TextAnalyticsKey != ""),
		Telemetry: pick(c.TelemetryConnString != ""),
	}
}

// hostname strips scheme, path, and port from a URL-ish host value.
func hostname(raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
