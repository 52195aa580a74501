package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ".", cfg.Project.Root)
		assert.Equal(t, "uml", cfg.Output.Path)
	})

	t.Run("YAML values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./src
  module: pyrror
  ignore: ["test", "setup.py"]
  workers: 4
output:
  path: pyrror
  title: Pyrror Overview
`), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "./src", cfg.Project.Root)
		assert.Equal(t, "pyrror", cfg.Project.Module)
		assert.Equal(t, []string{"test", "setup.py"}, cfg.Project.Ignore)
		assert.Equal(t, 4, cfg.Project.Workers)
		assert.Equal(t, "Pyrror Overview", cfg.Output.Title)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("PY2UML_ROOT", "./elsewhere")
		t.Setenv("PY2UML_MODULE", "overridden")
		t.Setenv("PY2UML_WORKERS", "8")
		t.Setenv("PY2UML_IGNORE", "test,fixtures")
		t.Setenv("PY2UML_OUT", "diagram")
		t.Setenv("PY2UML_TITLE", "Env Title")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "./elsewhere", cfg.Project.Root)
		assert.Equal(t, "overridden", cfg.Project.Module)
		assert.Equal(t, 8, cfg.Project.Workers)
		assert.Equal(t, []string{"test", "fixtures"}, cfg.Project.Ignore)
		assert.Equal(t, "diagram", cfg.Output.Path)
		assert.Equal(t, "Env Title", cfg.Output.Title)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("project: ["), 0o644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := Default()
		cfg.Project.Root = t.TempDir()
		return cfg
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid(t)
		cfg.Project.Module = "pkg.sub"
		require.NoError(t, cfg.Validate())
	})

	t.Run("Missing root is fatal", func(t *testing.T) {
		cfg := valid(t)
		cfg.Project.Root = filepath.Join(cfg.Project.Root, "gone")
		require.Error(t, cfg.Validate())
	})

	t.Run("Root must be a directory", func(t *testing.T) {
		cfg := valid(t)
		file := filepath.Join(cfg.Project.Root, "f")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		cfg.Project.Root = file
		require.Error(t, cfg.Validate())
	})

	t.Run("Invalid module identifier", func(t *testing.T) {
		cfg := valid(t)
		cfg.Project.Module = "1bad..name"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "own-module")
	})

	t.Run("Negative workers", func(t *testing.T) {
		cfg := valid(t)
		cfg.Project.Workers = -1
		require.Error(t, cfg.Validate())
	})
}
