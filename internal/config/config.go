package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Gateway environments.
const (
	GatewayEnvUAT  = "UAT"
	GatewayEnvProd = "PROD"
)

// ErrSandboxInProduction is returned by Validate when a production deployment
// points at the gateway sandbox.
var ErrSandboxInProduction = errors.New("gateway sandbox configuration detected in production")

// GatewayConfig holds payment gateway credentials and endpoints.
type GatewayConfig struct {
	MerchantID         string
	SaltKey            string
	SaltIndex          string
	Env                string
	BaseURL            string
	PayPath            string
	StatusPath         string
	CallbackVerifyPath string
	Timeout            time.Duration
	CallbackURL        string
	RedirectURL        string
}

// Configured reports whether the credentials required to sign requests are present.
func (g GatewayConfig) Configured() bool {
	return g.MerchantID != "" && g.SaltKey != ""
}

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Debug       bool
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	LogLevel    string
	FrontendURL string

	PendingGraceWindow time.Duration
	CallbackRateLimit  float64
	CallbackRateBurst  int

	Gateway GatewayConfig
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	gatewayEnv := strings.ToUpper(getEnv("PHONEPE_ENV", GatewayEnvUAT))
	baseURL := getEnv("PHONEPE_BASE_URL", defaultBaseURL(gatewayEnv))

	return &Config{
		AppEnv:      getEnv("APP_ENV", "local"),
		Debug:       getEnvBool("APP_DEBUG", false),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/bookings?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		PendingGraceWindow: getEnvDuration("PENDING_GRACE_WINDOW", 15*time.Minute),
		CallbackRateLimit:  getEnvFloat("CALLBACK_RATE_LIMIT", 5),
		CallbackRateBurst:  getEnvInt("CALLBACK_RATE_BURST", 20),

		Gateway: GatewayConfig{
			MerchantID:         os.Getenv("PHONEPE_MERCHANT_ID"),
			SaltKey:            os.Getenv("PHONEPE_SALT_KEY"),
			SaltIndex:          getEnv("PHONEPE_SALT_INDEX", "1"),
			Env:                gatewayEnv,
			BaseURL:            strings.TrimRight(baseURL, "/"),
			PayPath:            getEnv("PHONEPE_PAY_PATH", "/pg/v1/pay"),
			StatusPath:         getEnv("PHONEPE_STATUS_PATH", "/pg/v1/status"),
			CallbackVerifyPath: os.Getenv("PHONEPE_CALLBACK_VERIFY_PATH"),
			Timeout:            getEnvDuration("PHONEPE_TIMEOUT", 15*time.Second),
			CallbackURL:        getEnv("PHONEPE_CALLBACK_URL", "http://localhost:8080/api/payments/callback"),
			RedirectURL:        getEnv("PHONEPE_REDIRECT_URL", "http://localhost:8080/api/payments/callback"),
		},
	}
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate blocks startup on configurations that must never run.
// Missing gateway credentials are not an error here: the gateway client fails closed.
func (c *Config) Validate() error {
	if c.IsProduction() && c.IsSandboxGateway() {
		return fmt.Errorf("%w: env=%s url=%s", ErrSandboxInProduction, c.Gateway.Env, c.Gateway.BaseURL)
	}
	if c.PendingGraceWindow <= 0 {
		return fmt.Errorf("pending grace window must be positive, got %s", c.PendingGraceWindow)
	}
	return nil
}

// IsSandboxGateway reports whether the gateway points at a sandbox environment.
func (c *Config) IsSandboxGateway() bool {
	env := strings.ToUpper(c.Gateway.Env)
	url := strings.ToLower(c.Gateway.BaseURL)
	return env == GatewayEnvUAT || env == "SANDBOX" ||
		strings.Contains(url, "preprod") || strings.Contains(url, "sandbox")
}

// GatewayStatus returns a masked view of the gateway configuration safe for logs.
func (c *Config) GatewayStatus() map[string]string {
	saltKey := "missing"
	if c.Gateway.SaltKey != "" {
		saltKey = "configured"
	}
	return map[string]string{
		"app_env":     c.AppEnv,
		"gateway_env": c.Gateway.Env,
		"base_url":    c.Gateway.BaseURL,
		"merchant_id": mask(c.Gateway.MerchantID),
		"salt_key":    saltKey,
		"salt_index":  c.Gateway.SaltIndex,
	}
}

func defaultBaseURL(env string) string {
	if env == GatewayEnvProd {
		return "https://api.phonepe.com/apis/hermes"
	}
	return "https://api-preprod.phonepe.com/apis/pg-sandbox"
}

func mask(v string) string {
	if v == "" {
		return "missing"
	}
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + "****"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
