package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskmind/internal/util"
)

// Config holds the runtime settings of the dashboard.
type Config struct {
	Addr            string        `yaml:"addr"`
	DBPath          string        `yaml:"db_path"`
	APIURL          string        `yaml:"api_url"`
	TodoPathPrefix  string        `yaml:"todo_path_prefix"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	StaticDir       string        `yaml:"static_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		DBPath:          "data/taskmind.db",
		APIURL:          "http://localhost:5000",
		TodoPathPrefix:  "/api/todo",
		RequestTimeout:  15 * time.Second,
		RefreshInterval: 5 * time.Minute,
		StaticDir:       "",
	}
}

// Load resolves the configuration from built-in defaults, an optional YAML
// file, TASKMIND_* environment variables and command line flags, in that order
// of increasing precedence.
func Load(args []string) (Config, error) {
	def := Default()

	fs := flag.NewFlagSet("taskmind", flag.ContinueOnError)
	configPath := fs.String("config", util.EnvOrDefault("TASKMIND_CONFIG", ""), "Path to YAML configuration file")
	addr := fs.String("addr", def.Addr, "HTTP listen address")
	dbPath := fs.String("db", def.DBPath, "Path to sqlite database holding the credential")
	apiURL := fs.String("api", def.APIURL, "Base URL of the TaskMind API")
	prefix := fs.String("todo-prefix", def.TodoPathPrefix, "Path prefix of the to-do endpoints")
	timeout := fs.Duration("timeout", def.RequestTimeout, "Timeout for calls to the TaskMind API")
	refresh := fs.Duration("refresh", def.RefreshInterval, "Background refresh interval, 0 disables it")
	static := fs.String("static", def.StaticDir, "Directory with optional static assets")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "api":
			cfg.APIURL = *apiURL
		case "todo-prefix":
			cfg.TodoPathPrefix = *prefix
		case "timeout":
			cfg.RequestTimeout = *timeout
		case "refresh":
			cfg.RefreshInterval = *refresh
		case "static":
			cfg.StaticDir = *static
		}
	})

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = util.EnvOrDefault("TASKMIND_ADDR", c.Addr)
	c.DBPath = util.EnvOrDefault("TASKMIND_DB_PATH", c.DBPath)
	c.APIURL = util.EnvOrDefault("TASKMIND_API_URL", c.APIURL)
	// an explicitly empty prefix selects the bare /getToDo style
	if v, ok := os.LookupEnv("TASKMIND_TODO_PREFIX"); ok {
		c.TodoPathPrefix = v
	}
	c.RequestTimeout = util.EnvDurationOrDefault("TASKMIND_REQUEST_TIMEOUT", c.RequestTimeout)
	c.RefreshInterval = util.EnvDurationOrDefault("TASKMIND_REFRESH_INTERVAL", c.RefreshInterval)
	c.StaticDir = util.EnvOrDefault("TASKMIND_STATIC_DIR", c.StaticDir)
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.TodoPathPrefix = strings.TrimSpace(c.TodoPathPrefix)
	if c.TodoPathPrefix != "" {
		c.TodoPathPrefix = "/" + strings.Trim(c.TodoPathPrefix, "/")
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path must not be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}
	return nil
}
