package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrMissingSecret is returned when JWT_SECRET is unset; the server must not start without it.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// AdminSeed describes the default admin created on startup.
type AdminSeed struct {
	Enabled  bool
	Username string
	Password string
	Name     string
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	BcryptCost    int
	CORSOrigins   []string
	LoginRate     float64
	LoginBurst    int
	DefaultAdmin  AdminSeed
	LogLevel      string
	LogFormat     string
}

// Load reads configuration from the environment (and an optional demandhub.yaml)
// and performs minimal validation.
func Load() (Config, error) {
	v, err := newViper(".")
	if err != nil {
		return Config{}, err
	}
	return load(v)
}

// newViper applies defaults and reads demandhub.yaml from the first dir that has one.
// A missing file is fine; an unreadable or malformed one is an error.
func newViper(configDirs ...string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("storage_driver", DriverPostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "data/demandhub.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "demandhub-backend")
	v.SetDefault("jwt_ttl_minutes", 60)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("login_rate_per_minute", 10)
	v.SetDefault("login_burst", 5)
	v.SetDefault("seed_default_admin", true)
	v.SetDefault("default_admin_username", "admin")
	v.SetDefault("default_admin_password", "admin123456")
	v.SetDefault("default_admin_name", "Administrador Padrão")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetConfigName("demandhub")
	v.SetConfigType("yaml")
	for _, dir := range configDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

func load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:          strings.TrimSpace(v.GetString("port")),
		StorageDriver: strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		SQLitePath:    strings.TrimSpace(v.GetString("sqlite_path")),
		JWTSecret:     strings.TrimSpace(v.GetString("jwt_secret")),
		JWTIssuer:     strings.TrimSpace(v.GetString("jwt_issuer")),
		BcryptCost:    v.GetInt("bcrypt_cost"),
		CORSOrigins:   parseCSV(v.GetString("cors_allowed_origins")),
		LoginRate:     v.GetFloat64("login_rate_per_minute"),
		LoginBurst:    v.GetInt("login_burst"),
		DefaultAdmin: AdminSeed{
			Enabled:  v.GetBool("seed_default_admin"),
			Username: strings.TrimSpace(v.GetString("default_admin_username")),
			Password: v.GetString("default_admin_password"),
			Name:     strings.TrimSpace(v.GetString("default_admin_name")),
		},
		LogLevel:  strings.TrimSpace(v.GetString("log_level")),
		LogFormat: strings.TrimSpace(v.GetString("log_format")),
	}

	if ttlMinutes := v.GetInt("jwt_ttl_minutes"); ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = 10
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 5
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return Config{}, errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
