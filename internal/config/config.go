package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/snackline/backend/internal/dal/stripepay"
	"github.com/snackline/backend/internal/service/delivery"
	"github.com/snackline/backend/pkg/logger"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		panic("error while loading .env file: " + err.Error())
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/snackline")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}

// Delivery builds the delivery zone and fee configuration. Missing keys fall
// back to the restaurant defaults.
func Delivery() delivery.Config {
	cfg := delivery.Config{
		OriginLat: viper.GetFloat64("delivery.origin.lat"),
		OriginLng: viper.GetFloat64("delivery.origin.lng"),
		BaseFee:   decimalKey("delivery.base_fee", "2.00"),
		PerKmFee:  decimalKey("delivery.per_km_fee", "1.00"),
		MaxKm:     viper.GetFloat64("delivery.max_km"),
	}
	if cfg.MaxKm == 0 {
		cfg.MaxKm = 8
	}

	return cfg
}

// Stripe reads the payment provider credentials from the environment.
func Stripe() stripepay.Config {
	return stripepay.Config{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
}

// AdminToken is the shared secret for admin endpoints.
func AdminToken() string {
	return os.Getenv("ADMIN_TOKEN")
}

func decimalKey(key, fallback string) decimal.Decimal {
	raw := viper.GetString(key)
	if raw == "" {
		raw = fallback
	}

	return decimal.RequireFromString(raw)
}
