package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var DB *gorm.DB

// App holds the loaded configuration for the running process
var App *Config

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	Port       string
	Env        string

	Mpesa MpesaConfig

	// TransactionFee is the flat fee charged per settled STK payment.
	TransactionFee decimal.Decimal
	// WithdrawalMinimum is the smallest payout amount a merchant may request.
	WithdrawalMinimum decimal.Decimal
}

// MpesaConfig holds the process-wide default Daraja credentials. A
// merchant's business profile may override individual fields.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Shortcode      string
	InitiatorName  string
	InitiatorPass  string
	CallbackURL    string
	Env            string // sandbox, production
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine in production; real env vars take over.
	_ = godotenv.Load()

	config := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Port:       os.Getenv("PORT"),
		Env:        os.Getenv("ENV"),
		Mpesa: MpesaConfig{
			ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
			Passkey:        os.Getenv("MPESA_PASSKEY"),
			Shortcode:      os.Getenv("MPESA_SHORTCODE"),
			InitiatorName:  os.Getenv("MPESA_INITIATOR_NAME"),
			InitiatorPass:  os.Getenv("MPESA_INITIATOR_PASSWORD"),
			CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
			Env:            os.Getenv("MPESA_ENV"),
		},
		TransactionFee:    decimalFromEnv("TRANSACTION_FEE", "2.50"),
		WithdrawalMinimum: decimalFromEnv("WITHDRAWAL_MINIMUM", "100"),
	}

	App = config
	return config, nil
}

func decimalFromEnv(key, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal for %s: %q", key, raw))
	}
	return d
}
