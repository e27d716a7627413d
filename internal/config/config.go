// Package config reads the server settings from command line flags, with
// ODPAD_* environment variables (optionally from a .env file) as defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DBPath         string
	Addr           string
	AdminEmail     string
	LogPath        string
	SeedPath       string
	RedisAddr      string
	RedisUser      string
	RedisPassword  string
	AllowedOrigins []string
}

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultDBPath     = "odpad.sqlite3"
	DefaultAddr       = ":8080"
	DefaultAdminEmail = "admin@odpad.local"
)

const usage = `Usage: odpad [flags]

Flags:
  -d, -db <path>          SQLite database path (env ODPAD_DB, default: odpad.sqlite3)
  -a, -addr <host:port>   listen address (env ODPAD_ADDR, default: :8080)
  -e, -email <address>    admin email on first run (env ODPAD_ADMIN_EMAIL, default: admin@odpad.local)
  -l, -log <path>         log file path (env ODPAD_LOG, default: stdout/stderr only)
  -s, -seed <path>        YAML seed file applied at startup (env ODPAD_SEED)
  -r, -redis <host:port>  publish events to Redis (env ODPAD_REDIS, ODPAD_REDIS_USER, ODPAD_REDIS_PASSWORD)
  -o, -origins <list>     comma-separated CORS origins (env ODPAD_ORIGINS, default: *)
  -h, -help               show this help and exit
`

// LoadDotEnv loads environment variables from path. A missing file is not
// an error. Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// New parses args (without the program name). Usage goes to out. It returns
// flag.ErrHelp when help was requested.
func New(args []string, out io.Writer) (*Config, error) {
	fset := flag.NewFlagSet("odpad", flag.ContinueOnError)
	fset.SetOutput(out)
	fset.Usage = func() { fmt.Fprint(out, usage) }

	cfg := &Config{
		RedisUser:     os.Getenv("ODPAD_REDIS_USER"),
		RedisPassword: os.Getenv("ODPAD_REDIS_PASSWORD"),
	}
	var origins string

	stringVar(fset, &cfg.DBPath, "db", "d", env("ODPAD_DB", DefaultDBPath))
	stringVar(fset, &cfg.Addr, "addr", "a", env("ODPAD_ADDR", DefaultAddr))
	stringVar(fset, &cfg.AdminEmail, "email", "e", env("ODPAD_ADMIN_EMAIL", DefaultAdminEmail))
	stringVar(fset, &cfg.LogPath, "log", "l", env("ODPAD_LOG", ""))
	stringVar(fset, &cfg.SeedPath, "seed", "s", env("ODPAD_SEED", ""))
	stringVar(fset, &cfg.RedisAddr, "redis", "r", env("ODPAD_REDIS", ""))
	stringVar(fset, &origins, "origins", "o", env("ODPAD_ORIGINS", ""))

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if cfg.DBPath == "" {
		return nil, errors.New("database path must not be empty")
	}
	if !strings.Contains(cfg.AdminEmail, "@") {
		return nil, fmt.Errorf("invalid admin email %q", cfg.AdminEmail)
	}
	cfg.AllowedOrigins = splitList(origins)

	return cfg, nil
}

func stringVar(fset *flag.FlagSet, p *string, name, short, value string) {
	fset.StringVar(p, name, value, "")
	fset.StringVar(p, short, value, "")
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
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
