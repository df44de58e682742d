package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	// DBPath is the sqlite file for the local durable store. Empty means an
	// in-memory store that does not survive restarts.
	DBPath string

	// Upstream APIs
	CartAPIURL      string
	ProductAPIURL   string
	UpstreamTimeout time.Duration

	// UserID pre-associates a session at startup; carts work fine without
	// one, sync just stays off until a login happens.
	UserID string

	// RabbitURL enables event publication when set.
	RabbitURL string

	// SyncMinWindow keeps the syncing flag visible to UIs on fast networks.
	SyncMinWindow time.Duration
}

func Load() Config {
	return Config{
		Port:     getenv("PORT", "8090"),
		Env:      getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBPath: getenv("CART_DB_PATH", "cart.db"),

		CartAPIURL:      getenv("CART_API_URL", "https://fakestoreapi.com"),
		ProductAPIURL:   getenv("PRODUCT_API_URL", "https://fakestoreapi.com"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		UserID: getenv("CART_USER_ID", ""),

		RabbitURL: getenv("RABBITMQ_URL", ""),

		SyncMinWindow: parseDuration(getenv("SYNC_MIN_WINDOW", "500ms"), 500*time.Millisecond),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
