package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-spots/pkg/database"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

var ErrMissingSecret = errors.New("SECRET_KEY is not set")

// Config is everything the service reads from its environment.
type Config struct {
	HTTPAddr string

	Database database.Config
	Log      utilities.LogConfig

	SecretKey   string
	Algorithm   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// best-effort: a missing .env is fine
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		HTTPAddr:  withDefault(getenv("HTTP_ADDR"), "0.0.0.0:8000"),
		SecretKey: getenv("SECRET_KEY"),
		Algorithm: withDefault(getenv("ALGORITHM"), "HS256"),
	}
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecret
	}

	minutes, err := intFromEnv(getenv, "ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", minutes)
	}
	cfg.TokenTTL = time.Duration(minutes) * time.Minute

	maxConns, err := intFromEnv(getenv, "DATABASE_MAX_CONNS", 5)
	if err != nil {
		return nil, err
	}
	dsn, err := dsnFromEnv(getenv)
	if err != nil {
		return nil, err
	}
	cfg.Database = database.Config{
		DSN:      dsn,
		MaxConns: maxConns,
		Timeout:  5 * time.Second,
	}

	dev := getenv("LOG_DEV") == "1"
	lvl := getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	cfg.Log = utilities.LogConfig{Level: lvl, Dev: dev, File: getenv("LOG_FILE")}

	cfg.CORSOrigins = splitList(withDefault(getenv("CORS_ALLOWED_ORIGINS"), "*"))
	return cfg, nil
}

// dsnFromEnv prefers DATABASE_URL and otherwise assembles one from the POSTGRES_* variables.
// DATABASE_TIMEZONE and DATABASE_CLIENT_ENCODING become startup parameters, so every
// pooled connection gets them.
func dsnFromEnv(getenv func(string) string) (string, error) {
	session := map[string]string{
		"timezone":        getenv("DATABASE_TIMEZONE"),
		"client_encoding": getenv("DATABASE_CLIENT_ENCODING"),
	}
	dsn := getenv("DATABASE_URL")
	if dsn == "" {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(withDefault(getenv("POSTGRES_USER"), "postgres"), withDefault(getenv("POSTGRES_PASSWORD"), "postgres")),
			Host:     net.JoinHostPort(withDefault(getenv("POSTGRES_HOST"), "localhost"), withDefault(getenv("POSTGRES_PORT"), "5432")),
			Path:     "/" + withDefault(getenv("POSTGRES_DB"), "postgres"),
			RawQuery: "sslmode=disable",
		}
		dsn = u.String()
	}
	if session["timezone"] == "" && session["client_encoding"] == "" {
		return dsn, nil
	}

	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		// key=value form
		for _, k := range []string{"timezone", "client_encoding"} {
			if v := session[k]; v != "" {
				dsn += " " + k + "='" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(v) + "'"
			}
		}
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("DATABASE_URL: %w", err)
	}
	q := u.Query()
	for _, k := range []string{"timezone", "client_encoding"} {
		if v := session[k]; v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func intFromEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
