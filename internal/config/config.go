package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pet-profile-service/internal/adapters/auth/introspect"
	"pet-profile-service/internal/adapters/auth/jwtauth"
	"pet-profile-service/internal/adapters/directory/userprofile"
	"pet-profile-service/internal/adapters/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeDev  = "dev"
	AuthModeJWT  = "jwt"
	AuthModeOIDC = "oidc"

	// AuthModeIntrospect valida cada token contra un endpoint remoto.
	AuthModeIntrospect = "introspect"
)

type Config struct {
	Server    ServerConfig
	Storage   storage.Config
	Directory DirectoryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type DirectoryConfig struct {
	userprofile.Config

	// AllowAll acepta cualquier owner sin consultar (solo dev).
	AllowAll bool
}

type AuthConfig struct {
	Mode string
	JWT  jwtauth.Config

	OIDCIssuer   string
	OIDCClientID string

	Introspect introspect.Config
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	Window  time.Duration

	// Si RedisAddr viene, el límite se comparte entre réplicas.
	RedisAddr     string
	RedisPassword string
}

type LogConfig struct {
	Level  string
	Format string
	App    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "4000")
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("STORAGE_DRIVER", storage.DriverMemory)
	v.SetDefault("MONGODB_DATABASE", "petprofiles")
	v.SetDefault("MONGODB_COLLECTION", "petprofiles")
	v.SetDefault("BOLT_PATH", "pets.db")
	v.SetDefault("STORAGE_TIMEOUT", "10s")

	v.SetDefault("USER_SERVICE_PATH", userprofile.DefaultUserPath)
	v.SetDefault("USER_SERVICE_API_KEY_HEADER", userprofile.DefaultAPIKeyHeader)
	v.SetDefault("USER_SERVICE_TIMEOUT", "5s")
	v.SetDefault("USER_SERVICE_ALLOW_ALL", false)

	v.SetDefault("AUTH_MODE", AuthModeDev)
	v.SetDefault("AUTH_INTROSPECT_PATH", introspect.DefaultPath)
	v.SetDefault("AUTH_INTROSPECT_TIMEOUT", "5s")

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "pet-profile-service")
}

// Load lee envFile (si existe) y luego el entorno. Las variables ya
// definidas en el entorno ganan sobre el archivo.
func Load(envFile string) (*Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            strings.TrimSpace(v.GetString("PORT")),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Storage: storage.Config{
			Driver:          strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
			MongoURI:        v.GetString("MONGODB_URI"),
			MongoDatabase:   v.GetString("MONGODB_DATABASE"),
			MongoCollection: v.GetString("MONGODB_COLLECTION"),
			PostgresDSN:     v.GetString("DB_DSN"),
			BoltPath:        v.GetString("BOLT_PATH"),
			Timeout:         v.GetDuration("STORAGE_TIMEOUT"),
		},
		Directory: DirectoryConfig{
			Config: userprofile.Config{
				BaseURL:      strings.TrimSpace(v.GetString("USER_SERVICE_URL")),
				UserPath:     v.GetString("USER_SERVICE_PATH"),
				APIKey:       v.GetString("USER_SERVICE_API_KEY"),
				APIKeyHeader: v.GetString("USER_SERVICE_API_KEY_HEADER"),
				Timeout:      v.GetDuration("USER_SERVICE_TIMEOUT"),
			},
			AllowAll: v.GetBool("USER_SERVICE_ALLOW_ALL"),
		},
		Auth: AuthConfig{
			Mode: strings.ToLower(strings.TrimSpace(v.GetString("AUTH_MODE"))),
			JWT: jwtauth.Config{
				Secret: v.GetString("JWT_SECRET"),
				Issuer: v.GetString("JWT_ISSUER"),
			},
			OIDCIssuer:   strings.TrimSpace(v.GetString("OIDC_ISSUER")),
			OIDCClientID: strings.TrimSpace(v.GetString("OIDC_CLIENT_ID")),
			Introspect: introspect.Config{
				BaseURL: strings.TrimSpace(v.GetString("AUTH_INTROSPECT_URL")),
				Path:    v.GetString("AUTH_INTROSPECT_PATH"),
				APIKey:  v.GetString("AUTH_INTROSPECT_API_KEY"),
				Timeout: v.GetDuration("AUTH_INTROSPECT_TIMEOUT"),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			Window:        v.GetDuration("RATE_LIMIT_WINDOW"),
			RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			App:    v.GetString("APP_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate junta todos los problemas en un solo error.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.Storage.Driver {
	case storage.DriverMemory:
	case storage.DriverMongo:
		if strings.TrimSpace(c.Storage.MongoURI) == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo driver"))
		}
	case storage.DriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres driver"))
		}
	case storage.DriverBolt:
		if strings.TrimSpace(c.Storage.BoltPath) == "" {
			errs = append(errs, errors.New("BOLT_PATH is required for the bolt driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Auth.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
			errs = append(errs, errors.New("JWT_SECRET is required for AUTH_MODE=jwt"))
		}
	case AuthModeOIDC:
		if c.Auth.OIDCIssuer == "" || c.Auth.OIDCClientID == "" {
			errs = append(errs, errors.New("OIDC_ISSUER and OIDC_CLIENT_ID are required for AUTH_MODE=oidc"))
		}
	case AuthModeIntrospect:
		if c.Auth.Introspect.BaseURL == "" {
			errs = append(errs, errors.New("AUTH_INTROSPECT_URL is required for AUTH_MODE=introspect"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
		}
		if c.RateLimit.RedisAddr != "" && c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
	}

	return errors.Join(errs...)
}
