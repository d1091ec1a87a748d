// Package config handles runtime configuration and the .loom directory
// structure. Every project that uses Loom gets a .loom/ folder created in
// its root holding the config file, logs, the store staging area, and
// custom stage definitions.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoomDir is the name of the directory created in each project.
const LoomDir = ".loom"

const (
	defaultAppName          = "weather-app"
	defaultStoreBinary      = "memex"
	defaultGeneratorBaseURL = "https://api.openai.com/v1"
	defaultGeneratorModel   = "gpt-4o"
	defaultStoreTimeout     = Duration(30 * time.Second)
	defaultGeneratorTimeout = Duration(60 * time.Second)
)

const defaultProjectConfigYAML = `# loom project configuration
version: 1

app:
  name: weather-app
  output_dir: weather-app

store:
  binary: memex
  repository: weather-app
  file: weather-app.mx
  timeout: 30s

generator:
  base_url: https://api.openai.com/v1
  model: gpt-4o
  api_key_file: api_key.txt
  timeout: 60s

# Custom generation stages are loaded from .loom/stages (*.yaml or *.go).
stages:
  definitions_dir: .loom/stages
`

// Duration wraps time.Duration so YAML values like "30s" parse naturally.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go syntax.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AppConfig names the generated application and where it is written.
type AppConfig struct {
	Name      string `yaml:"name"`
	OutputDir string `yaml:"output_dir"`
}

// StoreConfig describes the external graph store invocation.
type StoreConfig struct {
	Binary     string   `yaml:"binary"`
	Repository string   `yaml:"repository"`
	File       string   `yaml:"file"`
	Timeout    Duration `yaml:"timeout"`
}

// GeneratorConfig describes the text-generation service.
type GeneratorConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Model      string   `yaml:"model"`
	APIKeyFile string   `yaml:"api_key_file"`
	Timeout    Duration `yaml:"timeout"`
}

// StagesConfig locates custom stage definitions.
type StagesConfig struct {
	DefinitionsDir string `yaml:"definitions_dir"`
}

// ProjectConfig models .loom/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	App       AppConfig       `yaml:"app"`
	Store     StoreConfig     `yaml:"store"`
	Generator GeneratorConfig `yaml:"generator"`
	Stages    StagesConfig    `yaml:"stages"`
}

// Config holds the runtime configuration for a Loom run.
type Config struct {
	// ProjectDir is the directory where the user ran `loom` from.
	ProjectDir string

	// LoomProjectDir is ProjectDir/.loom.
	LoomProjectDir string

	Project ProjectConfig
}

// InitLoomDir creates the .loom directory structure in the given project
// directory and seeds a default config.yaml when none exists.
func InitLoomDir(projectDir string) error {
	loomDir := filepath.Join(projectDir, LoomDir)
	dirs := []string{
		filepath.Join(loomDir, "logs"),
		filepath.Join(loomDir, "staging"),
		filepath.Join(loomDir, "stages"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(loomDir, "config.yaml"))
}

// NewConfig loads configuration for the project directory, applying defaults
// when the config file is missing.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:     projectDir,
		LoomProjectDir: filepath.Join(projectDir, LoomDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location of the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.LoomProjectDir, "config.yaml")
}

// LogPath returns the pipeline logbook destination.
func (c *Config) LogPath() string {
	return filepath.Join(c.LoomProjectDir, "logs", "loom.log")
}

// StagingFile returns the transient file used to hand content to the store's
// add command. Reused sequentially; never accessed concurrently.
func (c *Config) StagingFile() string {
	return filepath.Join(c.LoomProjectDir, "staging", "node.txt")
}

// StageDefinitionsDir returns the directory scanned for custom stages.
func (c *Config) StageDefinitionsDir() string {
	return resolvePath(c.ProjectDir, c.Project.Stages.DefinitionsDir)
}

// OutputDir returns the root of the generated application tree.
func (c *Config) OutputDir() string {
	return resolvePath(c.ProjectDir, c.Project.App.OutputDir)
}

// APIKeyPath returns the resolved generator key file location.
func (c *Config) APIKeyPath() string {
	return resolvePath(c.ProjectDir, c.Project.Generator.APIKeyFile)
}

// LoadAPIKey reads and trims the generator API key.
func (c *Config) LoadAPIKey() (string, error) {
	path := c.APIKeyPath()
	if path == "" {
		return "", fmt.Errorf("config: generator.api_key_file is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read api key: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("config: api key file %s is empty", path)
	}
	return key, nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	cfg := ProjectConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.App.Name == "" {
		pc.App.Name = defaultAppName
	}
	if pc.App.OutputDir == "" {
		pc.App.OutputDir = pc.App.Name
	}
	if pc.Store.Binary == "" {
		pc.Store.Binary = defaultStoreBinary
	}
	if pc.Store.Repository == "" {
		pc.Store.Repository = pc.App.Name
	}
	if pc.Store.File == "" {
		pc.Store.File = pc.Store.Repository + ".mx"
	}
	if pc.Store.Timeout == 0 {
		pc.Store.Timeout = defaultStoreTimeout
	}
	if pc.Generator.BaseURL == "" {
		pc.Generator.BaseURL = defaultGeneratorBaseURL
	}
	if pc.Generator.Model == "" {
		pc.Generator.Model = defaultGeneratorModel
	}
	if pc.Generator.APIKeyFile == "" {
		pc.Generator.APIKeyFile = "api_key.txt"
	}
	if pc.Generator.Timeout == 0 {
		pc.Generator.Timeout = defaultGeneratorTimeout
	}
	if pc.Stages.DefinitionsDir == "" {
		pc.Stages.DefinitionsDir = filepath.Join(LoomDir, "stages")
	}
}

func (pc *ProjectConfig) normalize() {
	pc.App.Name = strings.TrimSpace(pc.App.Name)
	pc.App.OutputDir = strings.TrimSpace(pc.App.OutputDir)
	pc.Store.Binary = strings.TrimSpace(pc.Store.Binary)
	pc.Store.Repository = strings.TrimSpace(pc.Store.Repository)
	pc.Store.File = strings.TrimSpace(pc.Store.File)
	pc.Generator.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Generator.BaseURL), "/")
	pc.Generator.Model = strings.TrimSpace(pc.Generator.Model)
	pc.Generator.APIKeyFile = strings.TrimSpace(pc.Generator.APIKeyFile)
	pc.Stages.DefinitionsDir = strings.TrimSpace(pc.Stages.DefinitionsDir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if pc.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if pc.App.OutputDir == "" {
		return fmt.Errorf("app.output_dir is required")
	}
	if pc.Store.Binary == "" {
		return fmt.Errorf("store.binary is required")
	}
	if pc.Store.File == "" {
		return fmt.Errorf("store.file is required")
	}
	if pc.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative")
	}
	if pc.Generator.BaseURL == "" {
		return fmt.Errorf("generator.base_url is required")
	}
	if pc.Generator.Model == "" {
		return fmt.Errorf("generator.model is required")
	}
	if pc.Generator.Timeout < 0 {
		return fmt.Errorf("generator.timeout must not be negative")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
