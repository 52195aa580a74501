package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

type Config struct {
	Project struct {
		Root    string   `yaml:"root"`
		Module  string   `yaml:"module"` // own-module identifier anchoring internal resolution
		Ignore  []string `yaml:"ignore"`
		Workers int      `yaml:"workers"`
	} `yaml:"project"`
	Output struct {
		Path  string `yaml:"path"`
		Title string `yaml:"title"`
	} `yaml:"output"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Output.Path = "uml"
	cfg.Output.Title = "UML Diagram"
	return cfg
}

// LoadConfig reads the YAML config at path, falling back to defaults when
// the file does not exist; environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("PY2UML_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if module := os.Getenv("PY2UML_MODULE"); module != "" {
		cfg.Project.Module = module
	}
	if workers := os.Getenv("PY2UML_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Project.Workers = n
		}
	}
	if ignore := os.Getenv("PY2UML_IGNORE"); ignore != "" {
		cfg.Project.Ignore = strings.Split(ignore, ",")
	}
	if out := os.Getenv("PY2UML_OUT"); out != "" {
		cfg.Output.Path = out
	}
	if title := os.Getenv("PY2UML_TITLE"); title != "" {
		cfg.Output.Title = title
	}

	return cfg, nil
}

// Validate reports configuration errors. It must pass before any file is
// touched: a bad root or own-module identifier is fatal, not per-file.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Project.Root)
	if err != nil {
		return fmt.Errorf("root directory %s: %w", c.Project.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.Project.Root)
	}
	if c.Project.Module != "" && !identifierRe.MatchString(c.Project.Module) {
		return fmt.Errorf("invalid own-module identifier %q", c.Project.Module)
	}
	if c.Project.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Project.Workers)
	}
	return nil
}
