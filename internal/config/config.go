// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present. Values
// already set in the real environment win over the file, so a deployment can
// override anything without editing it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 16

type Config struct {
	Port        int
	Database    DatabaseConfig
	AutoMigrate bool

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins []string
	FrontendURL string
	GitHub      GitHubConfig

	NewsBaseURL string
	LogLevel    slog.Level
}

type DatabaseConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // sqlite only
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether GitHub login should be offered at all.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads .env (if any) and then the environment. It does not validate;
// call Validate before using the result.
func Load() Config {
	_ = godotenv.Load()

	port := getEnvInt("PORT", 5000)

	return Config{
		Port: port,
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:     getEnv("DB_PATH", "data/devnode.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "devnode"),
			Password: getEnv("DB_PASS", ""),
			DBName:   getEnv("DB_NAME", "devnode"),
			UseSSL:   getEnvBool("DB_SSL", false),
		},
		AutoMigrate: getEnvBool("AUTO_MIGRATE", true),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 2*time.Hour),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/api/auth/github/callback", port)),
		},

		NewsBaseURL: getEnv("NEWS_BASE_URL", "https://dev.to/api"),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate reports every problem at once rather than stopping at the first.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	errs = append(errs, c.ValidateDatabase())

	return errors.Join(errs...)
}

// ValidateDatabase checks only the database settings. The migrate commands
// need nothing else.
func (c Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}
	return nil
}

// DSN returns what the store's Open expects for the configured driver.
func (c Config) DSN() string {
	if c.Database.Driver == "postgres" {
		return c.PostgresURL()
	}
	return c.Database.Path
}

func (c Config) PostgresURL() string {
	sslmode := "disable"
	if c.Database.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Path:   c.Database.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns 0 for an unparsable value so Validate can complain
// about it instead of silently using the default.
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return 0
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return 0
		}
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
