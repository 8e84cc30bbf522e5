package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPasscodeSessionDays  = 7
	DefaultBiometricSessionDays = 30
	DefaultBcryptCost           = 12
	DefaultOTPTTLMin            = 5
	DefaultOTPResendLimit       = 3
	DefaultOTPResendWindowMin   = 15
)

type Config struct {
	Env                  string
	Port                 string
	DBURL                string
	SessionTokenSecret   string
	PasscodeSessionDays  int
	BiometricSessionDays int
	BcryptCost           int
	OTPTTLMin            int
	OTPResendLimit       int
	OTPResendWindowMin   int
	LogLevel             string
}

func Load() *Config {
	env := getEnv("ENV", "development")
	loadEnvFile(env)

	return &Config{
		Env:                  env,
		Port:                 getEnv("PORT", "8080"),
		DBURL:                mustGetEnv("DB_URL"),
		SessionTokenSecret:   mustGetEnv("SESSION_TOKEN_SECRET"),
		PasscodeSessionDays:  getEnvAsInt("PASSCODE_SESSION_DAYS", DefaultPasscodeSessionDays),
		BiometricSessionDays: getEnvAsInt("BIOMETRIC_SESSION_DAYS", DefaultBiometricSessionDays),
		BcryptCost:           getEnvAsInt("BCRYPT_COST", DefaultBcryptCost),
		OTPTTLMin:            getEnvAsInt("OTP_TTL_MIN", DefaultOTPTTLMin),
		OTPResendLimit:       getEnvAsInt("OTP_RESEND_LIMIT", DefaultOTPResendLimit),
		OTPResendWindowMin:   getEnvAsInt("OTP_RESEND_WINDOW_MIN", DefaultOTPResendWindowMin),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

// loadEnvFile merges config/.env.<env> into the environment if present.
// Variables already set win; the file is optional in every environment.
func loadEnvFile(env string) {
	suffix := env
	switch env {
	case "development":
		suffix = "dev"
	case "production":
		suffix = "prod"
	}

	path := filepath.Join("config", ".env."+suffix)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("failed to load %s: %v", path, err)
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
