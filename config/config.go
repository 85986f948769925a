package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/busticket/busticket_backend/scheduler"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config is read once at startup from the environment and an optional .env file.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreBackend string
	MongoURI     string
	DBName       string

	JWTSecret   string
	CORSOrigins string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string
	FirebaseProjectID         string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	SchedulerEnabled bool
	Scheduler        scheduler.Config
}

// Load reads the configuration. A missing .env file is not an error; the
// returned bool reports whether one was found.
func Load() (Config, bool) {
	found := godotenv.Load() == nil

	sched := scheduler.DefaultConfig()
	sched.Timezone = getEnv("SCHEDULER_TIMEZONE", sched.Timezone)
	sched.ReminderSpec = getEnv("REMINDER_CRON", sched.ReminderSpec)
	sched.PromoSpec = getEnv("PROMO_CRON", sched.PromoSpec)
	sched.MaintenanceSpec = getEnv("MAINTENANCE_CRON", sched.MaintenanceSpec)
	sched.ExpirySpec = getEnv("EXPIRY_CRON", sched.ExpirySpec)
	sched.Workers = getInt("SCHEDULER_WORKERS", sched.Workers)
	sched.LockTTL = getDuration("SCHEDULER_LOCK_TTL", sched.LockTTL)

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	return Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		MongoURI:     mongoURI,
		DBName:       getEnv("DB_NAME", "busticket"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: os.Getenv("CORS_ALLOWED_ORIGINS"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirebaseProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),

		SchedulerEnabled: getBool("SCHEDULER_ENABLED", true),
		Scheduler:        sched,
	}, found
}

// IsDevelopment reports whether ENV names a development deployment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
