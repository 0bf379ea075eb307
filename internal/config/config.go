package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string // Application port
	StorageBackend string // Storage backend: sqlite, mysql or redis
	SQLitePath     string // Path of the embedded SQLite database file
	DBUser         string // MySQL user
	DBPassword     string // MySQL password
	DBHost         string // MySQL host
	DBPort         string // MySQL port
	DBName         string // MySQL database name
	JWTSecret      string // JWT secret key
	RedisAddr      string // Redis server address
	RedisPass      string // Redis password
	RedisDB        int    // Redis database number
	IsProd         bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg := &Config{
		AppPort:        os.Getenv("APP_PORT"),
		StorageBackend: os.Getenv("STORAGE_BACKEND"),
		SQLitePath:     os.Getenv("SQLITE_PATH"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		RedisDB:        redisDB,
		IsProd:         os.Getenv("IS_PROD") == "true",
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "finzapp.db"
	}
	return cfg
}

// MySQLDSN builds the MySQL Data Source Name from the DB_* settings.
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
