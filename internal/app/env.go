package app

import (
	"os"
	"strconv"

	"rental-manager/internal/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnvOrConfigInt(configValue int, envKey string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if n, err := strconv.Atoi(os.Getenv(envKey)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

// ConfigPath returns the YAML config location
func ConfigPath() string {
	return getEnv("CONFIG_PATH", "/app/config/rental.yaml")
}

// ApplyEnv fills settings the config file left empty from the environment.
// The file wins, except DB_TYPE and PORT, which select the deployment and always override.
func ApplyEnv(cfg *config.Config) {
	if t := os.Getenv("DB_TYPE"); t != "" {
		cfg.Database.Type = t
	}

	my := &cfg.Database.MySQL
	my.Host = getEnvOrConfig(my.Host, "DB_HOST", "mysql")
	my.Port = getEnvOrConfigInt(my.Port, "DB_PORT", 3306)
	my.User = getEnvOrConfig(my.User, "DB_USER", "rental_user")
	my.Password = getEnvOrConfig(my.Password, "DB_PASSWORD", "")
	my.Database = getEnvOrConfig(my.Database, "DB_NAME", "rental_db")

	pg := &cfg.Database.Postgres
	pg.Host = getEnvOrConfig(pg.Host, "DB_HOST", "db")
	pg.Port = getEnvOrConfigInt(pg.Port, "DB_PORT", 5432)
	pg.User = getEnvOrConfig(pg.User, "DB_USER", "rental_user")
	pg.Password = getEnvOrConfig(pg.Password, "DB_PASSWORD", "")
	pg.Database = getEnvOrConfig(pg.Database, "DB_NAME", "rental_db")

	cfg.Database.SQLite.Path = getEnvOrConfig(cfg.Database.SQLite.Path, "SQLITE_PATH", "rental.db")

	cfg.Redis.Addr = getEnvOrConfig(cfg.Redis.Addr, "REDIS_ADDR", "")
	cfg.Redis.Password = getEnvOrConfig(cfg.Redis.Password, "REDIS_PASSWORD", "")

	ms := &cfg.Search.Meilisearch
	ms.Host = getEnvOrConfig(ms.Host, "MEILISEARCH_HOST", "")
	ms.APIKey = getEnvOrConfig(ms.APIKey, "MEILISEARCH_KEY", "")

	cfg.Auth.JWTSecret = getEnvOrConfig(cfg.Auth.JWTSecret, "JWT_SECRET", "")
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
}
