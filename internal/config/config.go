package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-vaultsite/internal/dateutil"
	"github.com/alnah/go-vaultsite/internal/fileutil"
	"github.com/alnah/go-vaultsite/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength    = 4096 // PATH_MAX on Linux
	MaxPatternLength = 256  // one exclude glob
	MaxPatterns      = 100  // exclude or ignore entries
	MaxNameLength    = 64   // style and highlight style names
	MaxArgLength     = 1024 // one run.command element
	MaxArgs          = 32
)

// appDirName is the directory under os.UserConfigDir searched for configs.
const appDirName = "go-vaultsite"

// Config holds all configuration for a site build.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	Assets    AssetsConfig    `yaml:"assets"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Run       RunConfig       `yaml:"run"`
}

// InputConfig defines the vault to read.
type InputConfig struct {
	VaultDir string   `yaml:"vaultDir"`
	Exclude  []string `yaml:"exclude"` // glob patterns, see vault.Options
}

// OutputConfig defines where the site is written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// RenderConfig defines Markdown rendering options.
type RenderConfig struct {
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name
	RawHTML        bool   `yaml:"rawHTML"`
	HardWraps      bool   `yaml:"hardWraps"`
	DateFormat     string `yaml:"dateFormat"` // dateutil format or preset, empty = no page date
}

// AssetsConfig defines shared asset sources.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
	KatexDir string `yaml:"katexDir"` // empty = no KaTeX files copied
	Style    string `yaml:"style"`
}

// NormalizeConfig controls the directory case normalizer.
type NormalizeConfig struct {
	Enabled bool     `yaml:"enabled"`
	Ignore  []string `yaml:"ignore"` // directory names, matched exactly
}

// RunConfig defines the interpreter for runnable code blocks.
type RunConfig struct {
	Command   []string `yaml:"command"` // empty = blocks are not executed
	Extension string   `yaml:"extension"`
	Timeout   string   `yaml:"timeout"` // Go duration, empty = no limit
}

// TimeoutDuration parses Timeout. Validate has already rejected bad values.
func (r RunConfig) TimeoutDuration() time.Duration {
	if r.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks field lengths and values. Called by LoadConfig; callers
// building a Config by hand should call it too.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.vaultDir", c.Input.VaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateList("input.exclude", c.Input.Exclude, MaxPatternLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.dir", c.Output.Dir, MaxPathLength); err != nil {
		return err
	}
	if c.Input.VaultDir != "" && c.Output.Dir != "" &&
		filepath.Clean(c.Input.VaultDir) == filepath.Clean(c.Output.Dir) {
		return fmt.Errorf("%w: output.dir must differ from input.vaultDir", ErrInvalidValue)
	}

	if err := validateFieldLength("render.highlightStyle", c.Render.HighlightStyle, MaxNameLength); err != nil {
		return err
	}
	if c.Render.DateFormat != "" {
		if _, err := dateutil.ParseDateFormat(c.Render.DateFormat); err != nil {
			return fmt.Errorf("%w: render.dateFormat: %v", ErrInvalidValue, err)
		}
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.katexDir", c.Assets.KatexDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.style", c.Assets.Style, MaxNameLength); err != nil {
		return err
	}

	if err := validateList("normalize.ignore", c.Normalize.Ignore, MaxNameLength); err != nil {
		return err
	}
	for i, name := range c.Normalize.Ignore {
		if name == "" || strings.ContainsAny(name, "/\\") {
			return fmt.Errorf("%w: normalize.ignore[%d]: %q is not a directory name", ErrInvalidValue, i, name)
		}
	}

	return c.Run.validate()
}

func (r RunConfig) validate() error {
	if len(r.Command) > MaxArgs {
		return fmt.Errorf("%w: run.command (%d args, max %d)", ErrFieldTooLong, len(r.Command), MaxArgs)
	}
	for i, arg := range r.Command {
		if err := validateFieldLength(fmt.Sprintf("run.command[%d]", i), arg, MaxArgLength); err != nil {
			return err
		}
	}
	if len(r.Command) > 0 && strings.TrimSpace(r.Command[0]) == "" {
		return fmt.Errorf("%w: run.command[0]: program cannot be empty", ErrInvalidValue)
	}
	if r.Extension != "" {
		if err := fileutil.ValidateExtension(strings.TrimPrefix(r.Extension, ".")); err != nil {
			return fmt.Errorf("%w: run.extension: %v", ErrInvalidValue, err)
		}
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return fmt.Errorf("%w: run.timeout: %v", ErrInvalidValue, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: run.timeout: must not be negative, got %s", ErrInvalidValue, r.Timeout)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateList(fieldName string, values []string, maxLength int) error {
	if len(values) > MaxPatterns {
		return fmt.Errorf("%w: %s (%d entries, max %d)", ErrFieldTooLong, fieldName, len(values), MaxPatterns)
	}
	for i, v := range values {
		if err := validateFieldLength(fmt.Sprintf("%s[%d]", fieldName, i), v, maxLength); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			VaultDir: "notes",
			Exclude:  []string{".obsidian", ".git", ".trash"},
		},
		Output: OutputConfig{Dir: "out"},
		Render: RenderConfig{
			HighlightStyle: "github",
			RawHTML:        true,
			HardWraps:      true,
		},
		Assets: AssetsConfig{Style: "default"},
		Normalize: NormalizeConfig{
			Enabled: true,
			Ignore:  []string{".git", "node_modules", ".obsidian"},
		},
		Run: RunConfig{Extension: "js"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise it is searched as name.yaml / name.yml in the current directory,
// then in the user config directory. Keys absent from the file keep their
// DefaultConfig value; unknown keys are an error.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrConfigParse, configPath, yamlutil.FormatError(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name.
// Extensions in order: .yaml, .yml. Locations in order: current directory,
// {UserConfigDir}/go-vaultsite/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
