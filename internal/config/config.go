package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. main loads .env first (godotenv), then
// parses the environment into this struct.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// MySQL DSN, e.g. "user:pass@tcp(127.0.0.1:3306)/practicemarket?parseTime=true"
	DatabaseDSN string `env:"DB_DSN"`

	JWTSecret string `env:"JWT_SECRET"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	// Origin allowed to call the API from a browser (the web frontend).
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`

	// Bootstrap admin account, created at startup if missing.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
