package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	JWTSecret []byte
	// CORSOrigins empty allows every origin.
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	// RedisAddress empty keeps conversation state, dedupe and locks in
	// process memory.
	RedisAddress    string
	RedisPassword   string
	ConversationTTL time.Duration

	WhatsAppToken       string
	WhatsAppAPIBase     string
	WhatsAppVerifyToken string
	WhatsAppAppSecret   string
	SendTimeout         time.Duration
	// PhoneRegion is the libphonenumber region customer numbers are read in.
	PhoneRegion string

	// RabbitMQURL empty disables order event publishing.
	RabbitMQURL string

	Timezone      *time.Location
	AutoCloseHour int
	StockFailOpen bool
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		JWTSecret:   []byte(getEnv("JWT_SECRET", "food_order_bot_dev_secret")),
		CORSOrigins: splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "food_orders.db"),

		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		ConversationTTL: getDuration("CONVERSATION_TTL", 30*time.Minute),

		WhatsAppToken:       os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppAPIBase:     getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com/v20.0"),
		WhatsAppVerifyToken: os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		WhatsAppAppSecret:   os.Getenv("WHATSAPP_APP_SECRET"),
		SendTimeout:         getDuration("SEND_TIMEOUT", 10*time.Second),
		PhoneRegion:         getEnv("PHONE_REGION", "AR"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		Timezone:      loc,
		AutoCloseHour: getInt("AUTO_CLOSE_HOUR", 5),
		StockFailOpen: getBool("STOCK_FAIL_OPEN", false),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
