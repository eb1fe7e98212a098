package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Schema   string
}

// Enabled reports whether a database was configured at all.
func (d Database) Enabled() bool {
	return d.Host != ""
}

func (d Database) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.Schema,
	)
}

type Config struct {
	Addr              string
	OrderServiceURL   string
	PaymentServiceURL string
	PaymentMethod     string
	RequestTimeout    time.Duration
	// CheckoutTimeout bounds the part of a checkout that runs after the
	// order is issued. It replaces the caller's deadline there.
	CheckoutTimeout   time.Duration
	AllowedOrigins    []string
	LogLevel          string

	ReconcileInterval time.Duration
	StuckAfter        time.Duration

	DB Database
}

// Load reads the environment, after loading .env files when present.
func Load(envFiles ...string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	timeout, err := durationMS("REQUEST_TIMEOUT_MS", 5000)
	if err != nil {
		return Config{}, err
	}
	checkoutTimeout, err := duration("CHECKOUT_TIMEOUT", 3*timeout)
	if err != nil {
		return Config{}, err
	}
	interval, err := duration("RECONCILE_INTERVAL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	stuck, err := duration("STUCK_AFTER", time.Minute)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Addr:              getenv("STOREFRONT_ADDR", "127.0.0.1:8080"),
		OrderServiceURL:   strings.TrimRight(getenv("ORDER_SERVICE_URL", "http://localhost:8083/api"), "/"),
		PaymentServiceURL: strings.TrimRight(getenv("PAYMENT_SERVICE_URL", "http://localhost:8084/api"), "/"),
		PaymentMethod:     getenv("PAYMENT_METHOD", "stripe"),
		RequestTimeout:    timeout,
		CheckoutTimeout:   checkoutTimeout,
		AllowedOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		ReconcileInterval: interval,
		StuckAfter:        stuck,
		DB: Database{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     getenv("BLUEPRINT_DB_PORT", "5432"),
			User:     os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   getenv("BLUEPRINT_DB_SCHEMA", "public"),
		},
	}, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationMS(key string, def int) (time.Duration, error) {
	ms, err := strconv.Atoi(getenv(key, strconv.Itoa(def)))
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(key, def.String()))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
