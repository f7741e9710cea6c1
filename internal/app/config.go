package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/levelup-backend/internal/platform/envutil"
	"github.com/yungbote/levelup-backend/internal/services"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port        string   `yaml:"port"`
	LogMode     string   `yaml:"log_mode"`
	ServiceName string   `yaml:"service_name"`
	Environment string   `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`

	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	SessionSweep    time.Duration `yaml:"session_sweep_interval"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`

	LeaderboardCacheTTL time.Duration `yaml:"leaderboard_cache_ttl"`
	SSEBuffer           int           `yaml:"sse_buffer"`

	MetricsAddr string `yaml:"metrics_addr"`

	Rules services.Rules `yaml:"rules"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxOpen    int    `yaml:"max_open"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type StorageConfig struct {
	Mode             string `yaml:"mode"`
	EmulatorHost     string `yaml:"emulator_host"`
	PublicBaseURL    string `yaml:"public_base_url"`
	CredentialsJSON  string `yaml:"credentials_json"`
	AvatarBucket     string `yaml:"avatar_bucket"`
	SubmissionBucket string `yaml:"submission_bucket"`
}

func defaultConfig() Config {
	return Config{
		Port:                "8080",
		LogMode:             "development",
		ServiceName:         "levelup-backend",
		Environment:         "dev",
		JWTSecretKey:        defaultJWTSecret,
		AccessTokenTTL:      time.Hour,
		RefreshTokenTTL:     24 * time.Hour,
		SessionSweep:        10 * time.Minute,
		Database:            DatabaseConfig{Driver: "postgres", Host: "localhost", Port: "5432", User: "postgres", Name: "levelup"},
		Redis:               RedisConfig{Channel: "levelup:sse"},
		LeaderboardCacheTTL: 30 * time.Second,
		SSEBuffer:           32,
		MetricsAddr:         ":9090",
		Rules:               services.DefaultRules(),
	}
}

// LoadConfig reads the optional YAML file at path, then applies environment
// overrides. Rules sections omitted in the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)
	if raw := envutil.String("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = envutil.Duration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.SessionSweep = envutil.Duration("SESSION_SWEEP_INTERVAL", cfg.SessionSweep)

	db := &cfg.Database
	db.Driver = envutil.String("DB_DRIVER", db.Driver)
	db.DSN = envutil.String("DATABASE_URL", db.DSN)
	db.Host = envutil.String("POSTGRES_HOST", db.Host)
	db.Port = envutil.String("POSTGRES_PORT", db.Port)
	db.User = envutil.String("POSTGRES_USER", db.User)
	db.Password = envutil.String("POSTGRES_PASSWORD", db.Password)
	db.Name = envutil.String("POSTGRES_NAME", db.Name)
	db.SQLitePath = envutil.String("SQLITE_PATH", db.SQLitePath)
	db.MaxOpen = envutil.Int("DB_MAX_OPEN", db.MaxOpen)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	st := &cfg.Storage
	st.Mode = envutil.String("OBJECT_STORAGE_MODE", st.Mode)
	st.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", st.EmulatorHost)
	st.PublicBaseURL = envutil.String("GCS_PUBLIC_BASE_URL", st.PublicBaseURL)
	st.CredentialsJSON = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", st.CredentialsJSON)
	if name := envutil.String("GCS_BUCKET_NAME", ""); name != "" {
		st.AvatarBucket = name
		st.SubmissionBucket = name
	}
	st.AvatarBucket = envutil.String("GCS_AVATAR_BUCKET", st.AvatarBucket)
	st.SubmissionBucket = envutil.String("GCS_SUBMISSION_BUCKET", st.SubmissionBucket)

	cfg.LeaderboardCacheTTL = envutil.Duration("LEADERBOARD_CACHE_TTL", cfg.LeaderboardCacheTTL)
	cfg.SSEBuffer = envutil.Int("SSE_BUFFER", cfg.SSEBuffer)
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)
}

func (c Config) Validate() error {
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttls must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("refresh_token_ttl must not be shorter than access_token_ttl")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
