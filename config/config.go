package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	BaseURL       string
	TokenSecret   string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string
	Debug         bool
}

// LoadEnv reads a .env file into the process environment, if present.
// Variables already set are not overridden.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Parse reads the command line flags. Every flag defaults to the matching
// QPOLL_* environment variable.
func Parse(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("quick-poll", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", env("QPOLL_HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("QPOLL_PORT", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("QPOLL_DB_URL", "qpoll.sqlite"), "path to SQLite3 DB file, or a postgres:// URL")
	fs.StringVar(&cfg.BaseURL, "base-url", env("QPOLL_BASE_URL", ""), "external base URL for hyperlinks (default: derived from each request)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("QPOLL_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint("QPOLL_TOKEN_TTL", 120), "token TTL in seconds")
	fs.StringVar(&cfg.AdminUser, "admin-user", env("QPOLL_ADMIN_USER", ""), "account to provision at startup")
	fs.StringVar(&cfg.AdminPassword, "admin-password", env("QPOLL_ADMIN_PASSWORD", ""), "password for -admin-user")
	fs.BoolVar(&cfg.Debug, "debug", env("QPOLL_DEBUG", "") == "true", "log at DEBUG level")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("-admin-user requires -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envUint(key string, def uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return def
	}
	return uint(v)
}
