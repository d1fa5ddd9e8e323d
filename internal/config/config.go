package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a threadbase instance. Values come from an
// optional YAML file first, then environment variables on top; environment
// always wins.
type Config struct {
	Environment string
	MailDir     string `yaml:"mail_dir"`
	Timezone    string `yaml:"timezone"`
}

const defaultConfigFile = "threadbase.yaml"

func NewConfig() (*Config, error) {
	env := os.Getenv("THREADBASE_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment: env,
		MailDir:     "mail",
		Timezone:    "UTC",
	}

	if err := config.loadFile(); err != nil {
		return nil, err
	}

	if dir := os.Getenv("THREADBASE_MAIL_DIR"); dir != "" {
		config.MailDir = dir
	}
	if tz := os.Getenv("TZ"); tz != "" {
		config.Timezone = tz
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadFile merges in the YAML config file. THREADBASE_CONFIG names the file;
// without it, threadbase.yaml is used when present and silently skipped when
// not. An explicitly named file must exist.
func (c *Config) loadFile() error {
	path := os.Getenv("THREADBASE_CONFIG")
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MailDir == "" {
		return fmt.Errorf("mail_dir (or THREADBASE_MAIL_DIR) is required")
	}
	return nil
}
