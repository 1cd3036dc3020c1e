package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Postgres Postgres `validate:"required"`

	Auth   Auth   `validate:"required"`
	Stripe Stripe `validate:"required"`
	Shippo Shippo `validate:"required"`
	Chain  Chain  `validate:"required"`
	IPFS   IPFS   `validate:"required"`
	Kafka  Kafka  `validate:"required"`

	Cache Cache
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type Auth struct {
	JWTSecret string        `validate:"required"`
	TokenTTL  time.Duration `validate:"gt=0"`
}

type Stripe struct {
	SecretKey string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`
}

type Shippo struct {
	APIKey  string        `validate:"required"`
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type Chain struct {
	RPCURL          string `validate:"required,url"`
	PrivateKey      string `validate:"required"`
	ContractAddress string `validate:"required"`
	TreasuryAddress string `validate:"required"`
	ChainID         int64  `validate:"gt=0"`

	// ETHUSDRate converts order totals (USD) into wei when verifying
	// crypto payments.
	ETHUSDRate     string        `validate:"required"`
	Confirmations  uint64        `validate:"gte=1"`
	ConfirmTimeout time.Duration `validate:"gt=0"`
}

type IPFS struct {
	APIURL     string `validate:"required"`
	GatewayURL string `validate:"required,url"`
}

type Kafka struct {
	Brokers      []string      `validate:"required,min=1,dive,hostname_port"`
	Topic        string        `validate:"required"`
	BatchTimeout time.Duration `validate:"gte=0"`
}

type Cache struct {
	Capacity int           `validate:"gte=1"`
	TTL      time.Duration `validate:"gt=0"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Postgres: Postgres{
			Port:     envInt("POSTGRES_PORT", 5432),
			Host:     env("POSTGRES_HOST", "localhost"),
			DBName:   env("POSTGRES_DB", "marketplace"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Auth: Auth{
			JWTSecret: env("JWT_SECRET", ""),
			TokenTTL:  envDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},

		Stripe: Stripe{
			SecretKey: env("STRIPE_SECRET_KEY", ""),
			Timeout:   envDuration("STRIPE_TIMEOUT", 30*time.Second),
		},

		Shippo: Shippo{
			APIKey:  env("SHIPPO_API_KEY", ""),
			BaseURL: env("SHIPPO_BASE_URL", "https://api.goshippo.com"),
			Timeout: envDuration("SHIPPO_TIMEOUT", 10*time.Second),
		},

		Chain: Chain{
			RPCURL:          env("CHAIN_RPC_URL", "http://localhost:8545"),
			PrivateKey:      env("CHAIN_PRIVATE_KEY", ""),
			ContractAddress: env("NFT_CONTRACT_ADDRESS", ""),
			TreasuryAddress: env("CHAIN_TREASURY_ADDRESS", ""),
			ChainID:         int64(envInt("CHAIN_ID", 11155111)),

			ETHUSDRate:     env("CHAIN_ETH_USD_RATE", "2000"),
			Confirmations:  uint64(envInt("CHAIN_CONFIRMATIONS", 3)),
			ConfirmTimeout: envDuration("CHAIN_CONFIRM_TIMEOUT", 60*time.Second),
		},

		IPFS: IPFS{
			APIURL:     env("IPFS_API_URL", "localhost:5001"),
			GatewayURL: env("IPFS_GATEWAY_URL", "https://ipfs.io/ipfs"),
		},

		Kafka: Kafka{
			Brokers:      strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:        env("KAFKA_TOPIC", "order-events"),
			BatchTimeout: envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Cache: Cache{
			Capacity: envInt("CACHE_CAPACITY", 1000),
			TTL:      envDuration("CACHE_TTL", 5*time.Minute),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if len(fallback) == 0 {
		return ""
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
