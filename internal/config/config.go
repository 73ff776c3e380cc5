package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"`
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	FirebaseAPIKey    string `env:"FIREBASE_WEB_API_KEY"`

	// Payment gateway (hosted checkout page).
	GatewayBaseURL   string `env:"GATEWAY_BASE_URL" envDefault:"https://api.paystack.co"`
	GatewaySecretKey string `env:"GATEWAY_SECRET_KEY,required"`

	// External delivery-fee quoting function.
	DeliveryQuoteURL string `env:"DELIVERY_QUOTE_URL,required"`

	// Resilience layer tuning.
	NetProbeAddr      string `env:"NET_PROBE_ADDR" envDefault:"1.1.1.1:53"`
	AuthHealthURL     string `env:"AUTH_HEALTH_URL"`
	DataHealthURL     string `env:"DATA_HEALTH_URL"`
	HealthThresholdMs int    `env:"HEALTH_THRESHOLD_MS" envDefault:"5000"`

	// Reconciliation sweep for stale pending orders.
	StaleOrderMinutes int `env:"STALE_ORDER_MINUTES" envDefault:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
