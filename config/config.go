package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Mode selects how payment signatures are enforced. It is parsed once at
// startup and passed explicitly to the payment layer, never re-read from the
// environment.
type Mode string

const (
	// ModeSandbox treats every payment as authentic. Only for test keys.
	ModeSandbox Mode = "sandbox"
	// ModeProduction enforces the HMAC signature check.
	ModeProduction Mode = "production"
)

type Config struct {
	Port    string
	BaseURL string // public URL used in email links

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayMode      Mode
	Currency          string

	JWTSecret string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	KafkaBrokers string
}

// Load reads .env (if present) and the environment into a Config. There are
// no credential defaults; missing gateway or SMTP settings surface as errors
// at the point of use.
func Load() *Config {
	envLocations := []string{
		".env",
		"config/.env",
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:    getEnvWithDefault("PORT", "8080"),
		BaseURL: getEnvWithDefault("BASE_URL", "http://localhost:8080"),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnvWithDefault("DB_NAME", "infoziant_courses"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayMode:      parseMode(os.Getenv("RAZORPAY_MODE")),
		Currency:          getEnvWithDefault("CURRENCY", "INR"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		SMTPHost:  getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnvWithDefault("SMTP_PORT", "587"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),

		// Kafka settings (comma-separated brokers, empty disables eventing)
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
	}
}

func parseMode(raw string) Mode {
	if strings.EqualFold(strings.TrimSpace(raw), string(ModeProduction)) {
		return ModeProduction
	}
	return ModeSandbox
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// DBConnString builds the lib/pq connection string.
func (c *Config) DBConnString() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=disable"
}
