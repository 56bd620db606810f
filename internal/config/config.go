package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Top-level fields map to
// single environment variables; nested structs share a prefix (REDIS_,
// RATE_LIMIT_, AI_, S3_, LOG_).
type Config struct {
	Env         string        `envconfig:"APP_ENV" default:"development"` // application environment (development/production)
	Port        string        `envconfig:"PORT" default:"5000"`           // HTTP port to listen on
	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`  // MySQL DSN, e.g. user:pass@tcp(host:3306)/plants
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`    // secret used to sign JWTs
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"1h"`        // session token lifetime
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"10"`      // bcrypt cost for password hashing

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	// ContactAdmins restricts GET /api/contacts to these emails.  Empty
	// means any authenticated caller may list contact messages.
	ContactAdmins []string `envconfig:"CONTACTS_ADMIN_EMAILS"`

	// StrictConfidence rejects detections whose confidence is outside [0,100].
	StrictConfidence bool `envconfig:"DETECTION_STRICT_CONFIDENCE" default:"false"`

	RabbitURL      string `envconfig:"RABBITMQ_URL"`                   // empty disables event publishing
	ActivityLogDir string `envconfig:"ACTIVITY_LOG_DIR" default:"logs"` // where the activity consumer writes

	Log       LogConfig       `envconfig:"LOG"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	AI        AIConfig        `envconfig:"AI"`
	S3        S3Config        `envconfig:"S3"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// AIConfig points at an OpenAI-compatible chat completions gateway used by
// POST /api/analyze.  An empty APIKey disables analysis.
type AIConfig struct {
	GatewayURL string        `envconfig:"GATEWAY_URL" default:"https://ai.gateway.lovable.dev"`
	APIKey     string        `envconfig:"API_KEY"`
	Model      string        `envconfig:"MODEL" default:"google/gemini-2.5-flash"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// S3Config configures presigned image uploads.  An empty Bucket disables them.
type S3Config struct {
	Bucket       string        `envconfig:"BUCKET"`
	Region       string        `envconfig:"REGION" default:"us-east-1"`
	Endpoint     string        `envconfig:"ENDPOINT"`       // custom endpoint (MinIO etc.)
	AccessKey    string        `envconfig:"ACCESS_KEY"`     // static credentials; empty uses the default chain
	SecretKey    string        `envconfig:"SECRET_KEY"`
	PublicURL    string        `envconfig:"PUBLIC_URL"`     // base URL for stored objects
	PresignTTL   time.Duration `envconfig:"PRESIGN_TTL" default:"15m"`
	UsePathStyle bool          `envconfig:"USE_PATH_STYLE" default:"false"`
}

// Load reads an optional .env file, then environment variables, and
// validates the result.  Callers treat an error as fatal.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment config: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	cfg.ContactAdmins = trimAll(cfg.ContactAdmins)
	cfg.RateLimit = cfg.RateLimit.normalize()

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production" or "prod".
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func validate(cfg Config) error {
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", cfg.Port)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be blank")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl: %s", cfg.TokenTTL)
	}
	// bcrypt accepts 4..31
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt cost: %d", cfg.BcryptCost)
	}
	if len(cfg.CORSOrigins) == 0 {
		return errors.New("CORS_ORIGINS must list at least one origin")
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
