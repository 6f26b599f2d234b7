package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	AdminUser     string
	AdminPassword string
	Schema        string
	SSLMode       string
}

// DSN builds a postgres:// URL. Credentials are URL-encoded.
func (c DBConfig) DSN() string {
	return c.dsnFor(c.User, c.Password, c.Name)
}

// AdminDSN connects as the admin user to the maintenance database.
func (c DBConfig) AdminDSN() string {
	return c.dsnFor(c.AdminUser, c.AdminPassword, "postgres")
}

// Redacted is DSN with the password masked, for logs.
func (c DBConfig) Redacted() string {
	return fmt.Sprintf("postgres://%s:***@%s:%s/%s", c.User, c.Host, c.Port, c.Name)
}

func (c DBConfig) dsnFor(user, password, database string) string {
	userInfo := url.UserPassword(user, password)
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		userInfo.String(),
		c.Host,
		c.Port,
		url.PathEscape(database),
		url.QueryEscape(c.SSLMode),
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type Config struct {
	Port              int
	Env               string
	DB                DBConfig
	Redis             RedisConfig
	AccessTokenSecret []byte
	MigrateOnStart    bool
	CORSOrigins       []string
}

// Load reads configuration from the environment (and .env via autoload).
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:          os.Getenv("DB_HOST"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          os.Getenv("DB_USERNAME"),
			Password:      os.Getenv("DB_PASSWORD"),
			Name:          os.Getenv("DB_DATABASE"),
			AdminUser:     os.Getenv("DB_ADMIN_USER"),
			AdminPassword: os.Getenv("DB_ADMIN_PASSWORD"),
			Schema:        getEnv("DB_SCHEMA", "public"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AccessTokenSecret: TokenSecret(),
		MigrateOnStart:    getEnvBool("MIGRATE_ON_START", false),
		CORSOrigins:       splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	required := map[string]string{
		"DB_HOST":     cfg.DB.Host,
		"DB_USERNAME": cfg.DB.User,
		"DB_DATABASE": cfg.DB.Name,
	}
	for _, key := range []string{"DB_HOST", "DB_USERNAME", "DB_DATABASE"} {
		if required[key] == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}
	return cfg, nil
}

// TokenSecret reads ACCESS_TOKEN_SECRET alone, for commands that only sign
// tokens and have no database settings.
func TokenSecret() []byte {
	return []byte(os.Getenv("ACCESS_TOKEN_SECRET"))
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
