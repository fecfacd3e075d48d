package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrUnknownDriver is returned for a driver name biopull has no DSN rule for.
var ErrUnknownDriver = errors.New("unknown database driver")

// Keys shared by flags, env vars (BIOPULL_ prefix) and viper.
const (
	KeyDriver   = "driver"
	KeyHost     = "host"
	KeyPort     = "port"
	KeyPrefix   = "prefix"
	KeyLogLevel = "log_level"
	KeyEmail    = "email"
)

// Config holds the connection settings and table naming for one extraction.
type Config struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	TablePrefix string
	LogLevel    string
	// Email optionally restricts extraction to one user.
	Email string
}

// Load reads .env (if present) and fills the non-positional settings from v.
// Credentials and database name come from the command line and are set by
// the caller.
func Load(v *viper.Viper) (*Config, error) {
	godotenv.Load()

	v.SetEnvPrefix("BIOPULL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDriver, "mysql")
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyPort, 0)
	v.SetDefault(KeyPrefix, "mdl_")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyEmail, "")

	cfg := &Config{
		Driver:      strings.ToLower(v.GetString(KeyDriver)),
		Host:        v.GetString(KeyHost),
		Port:        v.GetInt(KeyPort),
		TablePrefix: v.GetString(KeyPrefix),
		LogLevel:    v.GetString(KeyLogLevel),
		Email:       v.GetString(KeyEmail),
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort(cfg.Driver)
	}
	return cfg, nil
}

func defaultPort(driver string) int {
	switch driver {
	case "postgres", "pgx":
		return 5432
	case "mysql":
		return 3306
	}
	return 0
}

// Validate checks that the settings are enough to build a DSN.
func (c *Config) Validate() error {
	switch c.Driver {
	case "mysql", "postgres", "pgx":
		if c.User == "" {
			return errors.New("config: database user must be set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("config: %w %q", ErrUnknownDriver, c.Driver)
	}
	if c.Database == "" {
		return errors.New("config: database name must be set")
	}
	return nil
}

// DSN builds the data source name for c.Driver.
func (c *Config) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	switch c.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = c.Database
		return mc.FormatDSN(), nil
	case "postgres", "pgx":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     addr,
			Path:     "/" + c.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	default:
		return c.Database, nil
	}
}
