// Package config loads CLI settings from flags, the environment, .env files
// and an optional .typedsql.yaml.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/satishbabariya/typedsql/dialect"
)

var AppFs = afero.NewOsFs()

// Keys and the flags bound to them.
const (
	KeyDatabaseURL  = "database_url"
	KeyDialect      = "dialect"
	KeyMigrationDir = "migration_dir"
	KeySchemaFile   = "schema_file"
	KeyDebug        = "debug"
)

var flagKeys = map[string]string{
	"database-url":  KeyDatabaseURL,
	"dialect":       KeyDialect,
	"migration-dir": KeyMigrationDir,
	"schema":        KeySchemaFile,
	"debug":         KeyDebug,
}

// Config holds the application configuration
type Config struct {
	DatabaseURL  string
	Dialect      string
	MigrationDir string
	SchemaFile   string
	Debug        bool
}

// Load reads the configuration. configFile, when set, replaces the search
// for .typedsql.yaml; flags that were set on the command line take
// precedence over every other source.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(".typedsql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "typedsql"))
	}

	v.SetEnvPrefix("TYPEDSQL")
	v.AutomaticEnv()

	v.SetDefault(KeyMigrationDir, "migrations")
	v.SetDefault(KeySchemaFile, "schema.tsql")
	v.SetDefault(KeyDebug, false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		Dialect:      v.GetString(KeyDialect),
		MigrationDir: v.GetString(KeyMigrationDir),
		SchemaFile:   v.GetString(KeySchemaFile),
		Debug:        v.GetBool(KeyDebug),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// loadDotEnv loads .env, then .env.local with higher priority. Variables
// already present in the environment win over .env but not over .env.local.
func loadDotEnv() error {
	for _, f := range []struct {
		name      string
		overwrite bool
	}{{".env", false}, {".env.local", true}} {
		file, err := AppFs.Open(f.name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		vars, err := godotenv.Parse(file)
		file.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", f.name, err)
		}
		for k, v := range vars {
			if _, set := os.LookupEnv(k); set && !f.overwrite {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Backend returns the configured dialect, inferred from the database URL
// when none is set.
func (c *Config) Backend() (dialect.Dialect, error) {
	if c.Dialect != "" {
		return dialect.Get(c.Dialect)
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("no database url configured (set --database-url or DATABASE_URL)")
	}
	return dialect.FromURL(c.DatabaseURL)
}

// DSN converts the database URL into the connection string the dialect's
// driver expects.
func (c *Config) DSN() (string, error) {
	d, err := c.Backend()
	if err != nil {
		return "", err
	}
	raw := c.DatabaseURL
	switch d.Name() {
	case dialect.SQLite:
		for _, prefix := range []string{"sqlite3://", "sqlite://"} {
			raw = strings.TrimPrefix(raw, prefix)
		}
		return raw, nil
	case dialect.MySQL:
		return mysqlDSN(raw)
	}
	return raw, nil
}

// mysqlDSN accepts a mysql:// URL or a driver DSN and enables the options
// migration scripts rely on.
func mysqlDSN(raw string) (string, error) {
	var cfg *mysql.Config
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "mysql" || u.Scheme == "mariadb") {
		cfg = mysql.NewConfig()
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if q := u.Query(); len(q) > 0 {
			cfg.Params = map[string]string{}
			for k := range q {
				cfg.Params[k] = q.Get(k)
			}
		}
	} else {
		cfg, err = mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}
