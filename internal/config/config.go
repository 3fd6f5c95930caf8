// Package config loads and validates the mkrelease pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Readme    ReadmeConfig    `yaml:"readme"`
	Convert   ConvertConfig   `yaml:"convert"`
	Packaging PackagingConfig `yaml:"packaging"`
	Publish   PublishConfig   `yaml:"publish"`
	History   HistoryConfig   `yaml:"history"`
	LockFile  string          `yaml:"lock_file,omitempty"`
}

// ProjectConfig identifies the project being released.
type ProjectConfig struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir,omitempty"` // project root; defaults to the config file's directory
}

// ReadmeConfig drives the Markdown generation stage.
type ReadmeConfig struct {
	Output        string   `yaml:"output,omitempty"`         // generated Markdown document
	Template      string   `yaml:"template"`                 // template file rendered against the payload
	DataCommand   []string `yaml:"data_command"`             // documentation-data script; payload on stdout
	PayloadFormat string   `yaml:"payload_format,omitempty"` // auto|json|yaml|env
	Sources       []string `yaml:"sources"`                  // watched source trees
}

// ConvertConfig drives the Markdown to reStructuredText stage.
type ConvertConfig struct {
	Output string `yaml:"output,omitempty"`
	// Command is the external converter invocation. Markdown is piped to
	// stdin and the converted document read from stdout. When empty the
	// built-in converter is used.
	Command []string `yaml:"command,omitempty"`
}

// PackagingConfig drives the sdist/wheel build stage.
type PackagingConfig struct {
	Command    []string `yaml:"command,omitempty"`    // packaging entry point
	Directives []string `yaml:"directives,omitempty"` // build directives
	DistDir    string   `yaml:"dist_dir,omitempty"`
	CleanPaths []string `yaml:"clean_paths,omitempty"` // artifact directories removed by clean
}

// PublishConfig drives the upload stage.
type PublishConfig struct {
	Index      string   `yaml:"index,omitempty"`      // package index name
	Directives []string `yaml:"directives,omitempty"` // directives appended for publishing
	AllowDirty bool     `yaml:"allow_dirty,omitempty"`
}

// HistoryConfig locates the run ledger.
type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults(configDir string) {
	if c.Project.Dir == "" {
		c.Project.Dir = configDir
	}
	if c.Readme.Output == "" {
		c.Readme.Output = "README.md"
	}
	if c.Readme.PayloadFormat == "" {
		c.Readme.PayloadFormat = "auto"
	}
	if c.Convert.Output == "" {
		c.Convert.Output = "README.rst"
	}
	if len(c.Packaging.Command) == 0 {
		c.Packaging.Command = []string{"python", "setup.py"}
	}
	if len(c.Packaging.Directives) == 0 {
		c.Packaging.Directives = []string{"build", "sdist", "bdist_wheel"}
	}
	if c.Packaging.DistDir == "" {
		c.Packaging.DistDir = "dist"
	}
	if len(c.Packaging.CleanPaths) == 0 {
		c.Packaging.CleanPaths = []string{"build", "dist"}
	}
	if c.Publish.Index == "" {
		c.Publish.Index = "pypi"
	}
	if len(c.Publish.Directives) == 0 {
		c.Publish.Directives = []string{"register", "upload"}
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(".mkrelease", "history.db")
	}
	if c.LockFile == "" {
		c.LockFile = ".mkrelease.lock"
	}
}

// ResolvePath resolves a config-relative path against the project directory.
// Absolute paths pass through unchanged.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Dir, p)
}

// ResolvePaths maps ResolvePath over a slice.
func (c *Config) ResolvePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, c.ResolvePath(p))
	}
	return out
}
