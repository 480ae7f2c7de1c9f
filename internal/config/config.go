package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/engine"
)

// keyringService namespaces stored passwords in the OS credential store.
const keyringService = "sqlrun"

// Config represents the application configuration.
type Config struct {
	Profiles    []Profile   `mapstructure:"profiles" yaml:"profiles"`
	Preferences Preferences `mapstructure:"preferences" yaml:"preferences"`
}

// Profile represents a saved database connection profile.
type Profile struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	// Path is the database file for file-based drivers.
	Path     string `mapstructure:"path" yaml:"path,omitempty"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`

	Execution Execution `mapstructure:"execution" yaml:"execution"`
}

// Execution holds per-profile statement execution settings.
type Execution struct {
	MaxRows          int      `mapstructure:"max_rows" yaml:"max_rows"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	FetchSize        int      `mapstructure:"fetch_size" yaml:"fetch_size"`
	NoSavepoints     bool     `mapstructure:"no_savepoints" yaml:"no_savepoints"`
	IgnoreDropErrors bool     `mapstructure:"ignore_drop_errors" yaml:"ignore_drop_errors"`
	QuietIgnored     bool     `mapstructure:"quiet_ignored" yaml:"quiet_ignored"`
	IgnoredVerbs     []string `mapstructure:"ignored_verbs" yaml:"ignored_verbs,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	DefaultProfile string `mapstructure:"default_profile" yaml:"default_profile"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
}

// EngineSettings converts the profile's execution section into runtime
// settings, starting from the defaults so unset fields keep their meaning.
func (p Profile) EngineSettings() engine.Settings {
	s := engine.DefaultSettings()
	if p.Execution.MaxRows > 0 {
		s.MaxRows = p.Execution.MaxRows
	}
	if p.Execution.TimeoutSeconds > 0 {
		s.Timeout = time.Duration(p.Execution.TimeoutSeconds) * time.Second
	}
	if p.Execution.FetchSize > 0 {
		s.FetchSize = p.Execution.FetchSize
	}
	s.UseSavepoints = !p.Execution.NoSavepoints
	s.IgnoreDropErrors = p.Execution.IgnoreDropErrors
	s.QuietIgnored = p.Execution.QuietIgnored
	if len(p.Execution.IgnoredVerbs) > 0 {
		s.IgnoredVerbs = nil
		for _, v := range p.Execution.IgnoredVerbs {
			s.IgnoredVerbs = append(s.IgnoredVerbs, strings.ToUpper(v))
		}
	}
	return s
}

// DSN builds a connection string for the profile's driver.
func (p Profile) DSN() string {
	if p.Driver == "sqlite" {
		return p.Path
	}

	dsn := "postgresql://"
	if p.Username != "" {
		dsn += url.User(p.Username).String()
		if p.Password != "" {
			dsn += ":" + url.QueryEscape(p.Password)
		}
		dsn += "@"
	}
	dsn += p.Host
	if p.Port > 0 {
		dsn += ":" + strconv.Itoa(p.Port)
	}
	dsn += "/" + p.Database
	if p.SSLMode != "" {
		dsn += "?sslmode=" + p.SSLMode
	}
	return dsn
}

// DisplayString returns a human-readable summary of the profile.
func (p Profile) DisplayString() string {
	if p.Driver == "sqlite" {
		return "sqlite:" + p.Path
	}
	s := p.Host
	if p.Port > 0 {
		s += ":" + strconv.Itoa(p.Port)
	}
	s += "/" + p.Database
	if p.Username != "" {
		s = p.Username + "@" + s
	}
	return s
}

// ParseDSN parses a connection string into a Profile. Strings with a
// sqlite scheme or no scheme at all are treated as database file paths.
func ParseDSN(dsn string) (Profile, error) {
	if rest, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return sqliteProfile(rest), nil
	}
	if !strings.Contains(dsn, "://") {
		return sqliteProfile(dsn), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return Profile{}, fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Profile{}, fmt.Errorf("unsupported driver scheme %q", u.Scheme)
	}

	p := Profile{
		Driver:   "postgres",
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}

	if u.User != nil {
		p.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			p.Password = pw
		}
	}

	if portStr := u.Port(); portStr != "" {
		p.Port, _ = strconv.Atoi(portStr)
	}
	if p.Port == 0 {
		p.Port = 5432
	}

	p.Name = fmt.Sprintf("postgres-%s-%d-%s", p.Host, p.Port, p.Database)

	return p, nil
}

func sqliteProfile(path string) Profile {
	return Profile{
		Name:   "sqlite-" + strings.TrimSuffix(lastPathElement(path), ".db"),
		Driver: "sqlite",
		Path:   path,
	}
}

func lastPathElement(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ResolvePassword returns the profile's password, consulting the OS
// credential store when the config file does not carry one.
func (p Profile) ResolvePassword() (string, error) {
	if p.Password != "" {
		return p.Password, nil
	}
	pw, err := keyring.Get(keyringService, p.Name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("credential store: %w", err)
	}
	return pw, nil
}

// StorePassword saves a password for the profile in the OS credential store,
// keeping it out of the config file.
func StorePassword(profileName, password string) error {
	if err := keyring.Set(keyringService, profileName, password); err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	return nil
}

// HasProfile checks if a profile with the given name already exists.
func (cfg *Config) HasProfile(name string) bool {
	for _, p := range cfg.Profiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// AddProfile appends a profile if it doesn't already exist.
func (cfg *Config) AddProfile(p Profile) {
	if !cfg.HasProfile(p.Name) {
		cfg.Profiles = append(cfg.Profiles, p)
	}
}
