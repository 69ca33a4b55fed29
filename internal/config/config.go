// Package config provides YAML-based configuration loading for the support desk.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level desk configuration, loaded from desk.yaml.
type Config struct {
	API      APIConfig      `yaml:"api" envPrefix:"DESK_API_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"DESK_SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DESK_DB_"`
	Notify   NotifyConfig   `yaml:"notify" envPrefix:"DESK_NOTIFY_"`
	Console  ConsoleConfig  `yaml:"console" envPrefix:"DESK_CONSOLE_"`
}

// APIConfig locates the five remote resources the console talks to.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	AuthPath      string        `yaml:"auth_path" env:"AUTH_PATH"`
	ChatsPath     string        `yaml:"chats_path" env:"CHATS_PATH"`
	MessagesPath  string        `yaml:"messages_path" env:"MESSAGES_PATH"`
	EmployeesPath string        `yaml:"employees_path" env:"EMPLOYEES_PATH"`
	HistoryPath   string        `yaml:"history_path" env:"HISTORY_PATH"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ServerConfig controls the reference desk server.
type ServerConfig struct {
	Port      int       `yaml:"port" env:"PORT"`
	DebugSQL  bool      `yaml:"debug_sql" env:"DEBUG_SQL"`
	SeedAdmin SeedAdmin `yaml:"seed_admin" envPrefix:"SEED_ADMIN_"`
}

// SeedAdmin describes an admin account created at server startup when no
// employee with that login exists. Empty Login disables seeding.
type SeedAdmin struct {
	Login    string `yaml:"login" env:"LOGIN"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
}

// DatabaseConfig selects the store backing the desk server.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"` // "sqlite" or "mysql"
	Path     string `yaml:"path" env:"PATH"`     // sqlite file
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
}

// NotifyConfig holds optional staff alert destinations.
type NotifyConfig struct {
	Slack   ChannelConfig `yaml:"slack" envPrefix:"SLACK_"`
	Discord ChannelConfig `yaml:"discord" envPrefix:"DISCORD_"`
	// Telegram's ChannelID is the numeric chat id.
	Telegram ChannelConfig `yaml:"telegram" envPrefix:"TELEGRAM_"`
}

// ChannelConfig is a bot token plus the channel alerts are posted to.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token" env:"BOT_TOKEN"`
	ChannelID string `yaml:"channel_id" env:"CHANNEL_ID"`
}

// Enabled reports whether both token and channel are set.
func (c ChannelConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// ConsoleConfig tunes the interactive console.
type ConsoleConfig struct {
	// Refresh is a 5-field cron expression for background chat-list
	// refreshes. Empty disables background refresh.
	Refresh string `yaml:"refresh" env:"REFRESH"`
}

// LoadEnvFile loads DESK_* variables from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns a validated Config built only from defaults and DESK_*
// environment variables, for use when no config file is present.
func Default() (*Config, error) {
	return Parse(nil)
}

// Parse unmarshals YAML bytes, applies DESK_* environment overrides and
// defaults, and returns a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithDefaultPaths returns a copy of a with empty resource paths set to
// their defaults.
func (a APIConfig) WithDefaultPaths() APIConfig {
	if a.AuthPath == "" {
		a.AuthPath = "/auth"
	}
	if a.ChatsPath == "" {
		a.ChatsPath = "/chats"
	}
	if a.MessagesPath == "" {
		a.MessagesPath = "/messages"
	}
	if a.EmployeesPath == "" {
		a.EmployeesPath = "/employees"
	}
	if a.HistoryPath == "" {
		a.HistoryPath = "/history"
	}
	return a
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8095
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.Server.Port)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.API = c.API.WithDefaultPaths()
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "desk.db"
		}
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "supportdesk"
		}
	}
	if c.Server.SeedAdmin.Login != "" && c.Server.SeedAdmin.Name == "" {
		c.Server.SeedAdmin.Name = c.Server.SeedAdmin.Login
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	for name, p := range map[string]string{
		"auth_path":      c.API.AuthPath,
		"chats_path":     c.API.ChatsPath,
		"messages_path":  c.API.MessagesPath,
		"employees_path": c.API.EmployeesPath,
		"history_path":   c.API.HistoryPath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Sprintf("api.%s must start with /", name))
		}
	}
	if c.API.Timeout < 0 {
		errs = append(errs, "api.timeout must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.SeedAdmin.Login != "" && c.Server.SeedAdmin.Password == "" {
		errs = append(errs, "server.seed_admin.password is required when login is set")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if n := c.Notify.Slack; (n.BotToken == "") != (n.ChannelID == "") {
		errs = append(errs, "notify.slack needs both bot_token and channel_id")
	}
	if n := c.Notify.Discord; (n.BotToken == "") != (n.ChannelID == "") {
		errs = append(errs, "notify.discord needs both bot_token and channel_id")
	}
	if n := c.Notify.Telegram; (n.BotToken == "") != (n.ChannelID == "") {
		errs = append(errs, "notify.telegram needs both bot_token and channel_id")
	} else if n.ChannelID != "" {
		if _, err := strconv.ParseInt(n.ChannelID, 10, 64); err != nil {
			errs = append(errs, fmt.Sprintf("notify.telegram.channel_id %q is not a numeric chat id", n.ChannelID))
		}
	}
	if c.Console.Refresh != "" {
		if _, err := cron.ParseStandard(c.Console.Refresh); err != nil {
			errs = append(errs, fmt.Sprintf("console.refresh %q: %v", c.Console.Refresh, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN for the mysql database driver.
func (d DatabaseConfig) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	mc.DBName = d.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}
