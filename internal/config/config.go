package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process settings read from configs/.env and the environment.
type Config struct {
	Port         string
	LogMode      string
	DBDriver     string // "postgres" or "sqlite"
	DSN          string
	JWTSecret    []byte
	CORSOrigins  []string
	TemplatesDir string
}

// Load reads configs/.env (if present) and then the environment.
// The returned bool reports whether the .env file was found.
func Load() (Config, bool) {
	envLoaded := godotenv.Load("configs/.env") == nil

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		LogMode:      getenv("LOG_MODE", "dev"),
		DBDriver:     strings.ToLower(getenv("DB_DRIVER", "postgres")),
		TemplatesDir: getenv("TEMPLATES_DIR", "configs/prescriptions"),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		JWTSecret:    []byte(jwtSecret()),
	}

	if cfg.DBDriver == "sqlite" {
		cfg.DSN = getenv("SQLITE_PATH", "rotation.db")
	} else {
		cfg.DSN = postgresDSN()
	}

	return cfg, envLoaded
}

func postgresDSN() string {
	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	return "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode
}

func jwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only
	}
	return secret
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
