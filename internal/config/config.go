package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var ErrMissingSecret = errors.New("missing required env JWT_SECRET")

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	JWTSecret      []byte
	JWTAlgorithm   string
	AccessTokenTTL time.Duration

	LogLevel    string
	HashWorkers int
	CORSOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads the process environment. It fails when the signing secret is
// absent or any setting does not parse, and reports every problem at once.
func Load() (Config, error) {
	var errs []error
	intVar := func(key string, def, lo, hi int) int {
		n, err := lookupInt(key, def, lo, hi)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	ttlMinutes := intVar("ACCESS_TOKEN_EXPIRE_MINUTES", 30, 1, math.MaxInt32)

	cfg := Config{
		ServiceName: lookup("SERVICE_NAME", "blog"),

		ServerPort: intVar("SERVER_PORT", 8080, 1, 65535),

		DatabaseURL: lookup("DATABASE_URL", "sqlite:blog.db"),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm:   strings.ToUpper(lookup("JWT_ALGORITHM", "HS256")),
		AccessTokenTTL: time.Duration(ttlMinutes) * time.Minute,

		LogLevel:    lookup("LOG_LEVEL", "info"),
		HashWorkers: intVar("HASH_WORKERS", runtime.GOMAXPROCS(0), 1, 1024),
		CORSOrigins: splitList(lookup("CORS_ORIGINS", "*")),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   lookup("KAFKA_TOPIC", "blog_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    lookup("ES_INDEX", "posts"),
	}

	if len(cfg.JWTSecret) == 0 {
		errs = append(errs, ErrMissingSecret)
	}
	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

// splitList reads a comma separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// lookupInt returns def for an unset variable and an error for anything
// that is not an integer in [lo, hi].
func lookupInt(key string, def, lo, hi int) (int, error) {
	v := lookup(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return def, fmt.Errorf("%s must be an integer between %d and %d, got %q", key, lo, hi, v)
	}
	return n, nil
}
