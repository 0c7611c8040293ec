package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Claim gating policies for medical-aid dispensing. With ClaimFireAndForget the
// claim is submitted and dispensing completes regardless of its outcome; with
// ClaimRequireAccepted completion is blocked until the insurer accepts the claim.
const (
	ClaimFireAndForget   = "fire-and-forget"
	ClaimRequireAccepted = "require-accepted"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// Pharmacy behaviour
	PharmacyName  string  `mapstructure:"PHARMACY_NAME"`
	ClaimPolicy   string  `mapstructure:"CLAIM_POLICY"`
	DispensingFee float64 `mapstructure:"DISPENSING_FEE"`
	ZWLRate       float64 `mapstructure:"ZWL_RATE"`
	LabelFooter   string  `mapstructure:"LABEL_FOOTER"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("PHARMACY_NAME", "ehutano+ Pharmacy")
	v.SetDefault("CLAIM_POLICY", ClaimFireAndForget)
	v.SetDefault("DISPENSING_FEE", 1.00)
	v.SetDefault("ZWL_RATE", 0)
	v.SetDefault("LABEL_FOOTER", "Keep out of reach of children. Medicines Control Authority of Zimbabwe.")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("PHARMACY_NAME")
	v.BindEnv("CLAIM_POLICY")
	v.BindEnv("DISPENSING_FEE")
	v.BindEnv("ZWL_RATE")
	v.BindEnv("LABEL_FOOTER")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret must be set so that bearer authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when ENV is %q", c.Env)
	}
	if c.ClaimPolicy != ClaimFireAndForget && c.ClaimPolicy != ClaimRequireAccepted {
		return fmt.Errorf("CLAIM_POLICY must be %q or %q, got %q",
			ClaimFireAndForget, ClaimRequireAccepted, c.ClaimPolicy)
	}
	if c.DispensingFee < 0 {
		return fmt.Errorf("DISPENSING_FEE must not be negative")
	}
	if c.ZWLRate < 0 {
		return fmt.Errorf("ZWL_RATE must not be negative")
	}
	return nil
}
