package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	RedisURL       string
	SessionSecret  string
	AdminUsername  string // seeded on startup when set
	AdminPassword  string
	AllowedOrigins []string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "production" && viper.GetString("DATABASE_URL_PROD") != "" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" && viper.GetString("DATABASE_URL_TEST") != "" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	return &Config{
		Env:            env,
		Port:           port,
		DatabaseURL:    dbURL,
		RedisURL:       redisURL,
		SessionSecret:  viper.GetString("SESSION_SECRET"),
		AdminUsername:  viper.GetString("ADMIN_USERNAME"),
		AdminPassword:  viper.GetString("ADMIN_PASSWORD"),
		AllowedOrigins: splitOrigins(viper.GetString("ALLOWED_ORIGINS")),
	}, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
