package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	MetricsPort string
	PostgresURL string
	MongoURI    string
	JWTSecret   string

	// Push transport
	PushProvider            string // "webpush" or "fcm"
	VAPIDPublicKey          string
	VAPIDPrivateKey         string
	VAPIDSubscriber         string
	FirebaseCredentialsPath string

	// Dispatch / presence tuning
	PresenceTTL          time.Duration
	OfflineGracePeriod   time.Duration
	TransportTimeout     time.Duration
	DefaultListLimit     int
	MaxListLimit         int
	BroadcastConcurrency int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		PostgresURL: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:    getEnv("MONGO_URI", ""),
		JWTSecret:   getEnv("JWT_SECRET", "supersecretjwtkey"),

		PushProvider:            getEnv("PUSH_PROVIDER", "webpush"),
		VAPIDPublicKey:          getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:         getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:         getEnv("VAPID_SUBSCRIBER", "mailto:admin@example.com"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),

		PresenceTTL:          getDurationEnv("PRESENCE_TTL", 5*time.Minute),
		OfflineGracePeriod:   getDurationEnv("OFFLINE_GRACE_PERIOD", 5*time.Minute),
		TransportTimeout:     getDurationEnv("TRANSPORT_TIMEOUT", 10*time.Second),
		DefaultListLimit:     getIntEnv("DEFAULT_LIST_LIMIT", 50),
		MaxListLimit:         getIntEnv("MAX_LIST_LIMIT", 100),
		BroadcastConcurrency: getIntEnv("BROADCAST_CONCURRENCY", 16),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
