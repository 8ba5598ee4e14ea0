// Package config loads service settings from a YAML file, an optional .env
// file and the process environment, in that order of increasing priority.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	AI        AI        `yaml:"ai"`
	Log       Log       `yaml:"log"`
	Recommend Recommend `yaml:"recommend"`
}

type Server struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Storage struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	// SeedDemo writes the demo catalog into the store at startup.
	SeedDemo bool `yaml:"seed_demo"`
	// Timeout bounds every repository call, e.g. "5s".
	Timeout string `yaml:"timeout"`
}

type AI struct {
	URL         string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Recommend struct {
	Threshold float64 `yaml:"threshold"`
}

func Default() *Config {
	return &Config{
		Server:    Server{Port: "8000", CORSOrigins: []string{"*"}},
		Storage:   Storage{Driver: "memory", Database: "smartcart", Timeout: "5s"},
		AI:        AI{Timeout: "30s", Temperature: 0.7, MaxTokens: 500},
		Log:       Log{Level: "info", Format: "text"},
		Recommend: Recommend{Threshold: 0.5},
	}
}

// LoadConfig reads path over the defaults, then applies .env and environment
// overrides. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", path)
		default:
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := config.AI.TimeoutDuration(); err != nil {
		return nil, err
	}
	if _, err := config.Storage.TimeoutDuration(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Timeout, "STORAGE_TIMEOUT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.AI.URL, "FLOWISE_API_URL")
	setString(&c.AI.APIKey, "FLOWISE_API_KEY")
	setString(&c.AI.Timeout, "FLOWISE_TIMEOUT")

	switch c.Storage.Driver {
	case "mongo":
		setString(&c.Storage.DSN, "MONGO_URL")
		setString(&c.Storage.DSN, "MONGO_PUBLIC_URL")
	case "postgres":
		setString(&c.Storage.DSN, "DATABASE_URL")
	case "mysql":
		setString(&c.Storage.DSN, "MYSQL_DSN")
	}

	if v := os.Getenv("STORAGE_SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "STORAGE_SEED_DEMO=%q", v)
		}
		c.Storage.SeedDemo = b
	}
	if v := os.Getenv("RECOMMEND_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "RECOMMEND_THRESHOLD=%q", v)
		}
		c.Recommend.Threshold = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (a AI) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "ai.timeout %q", a.Timeout)
	}
	return d, nil
}

func (s Storage) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "storage.timeout %q", s.Timeout)
	}
	if d <= 0 {
		return 0, errors.Errorf("storage.timeout must be positive, got %s", s.Timeout)
	}
	return d, nil
}
