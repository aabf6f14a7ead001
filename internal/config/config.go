// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/pyrelease/pyrelease/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "pyrelease"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables that override config keys.
	EnvPrefix = "PYRELEASE"

	// DefaultTimeout bounds the hosting API request.
	DefaultTimeout = 15 * time.Second
	// DefaultAPIBaseURL is the public GitHub REST API.
	DefaultAPIBaseURL = "https://api.github.com"
	// DefaultMetadataFile is read relative to the project root.
	DefaultMetadataFile = "{package}/__init__.py"

	// maxConfigFileBytes bounds the size of a config file (1 MB).
	maxConfigFileBytes = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the pyrelease configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the path of the user config file.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// DefaultUploaderPath resolves the twine executable: %APPDATA%\Python\Scripts\twine.exe
// on Windows, and twine on PATH elsewhere. It returns "" when nothing is found.
func DefaultUploaderPath(goos string, getenv func(string) string, lookPath func(string) (string, error)) string {
	if goos == "windows" {
		appData := getenv("APPDATA")
		if appData == "" {
			return ""
		}
		return appData + `\Python\Scripts\twine.exe`
	}
	if lookPath == nil {
		return ""
	}
	p, err := lookPath("twine")
	if err != nil {
		return ""
	}
	return p
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Python:       "python",
		Pip:          "pip",
		UploaderPath: DefaultUploaderPath(runtime.GOOS, os.Getenv, exec.LookPath),
		MetadataFile: DefaultMetadataFile,
		Clean:        true,
		Pull:         true,
		Verbosity:    3,
		Runtime:      RuntimeNative,
		Timeout:      DefaultTimeout,
		APIBaseURL:   DefaultAPIBaseURL,
		ExcludeDirs:  []string{},
	}
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'pyrelease config dump' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the " + EnvPrefix + "_* environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// resolveConfigFile picks the config file to load: the explicit path when set,
// else the config directory, else the working directory. An empty result with
// a nil error means no file exists and defaults apply.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'pyrelease config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}

	name := ConfigFileName + "." + ConfigFileExt
	if p := filepath.Join(cfgDir, name); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.WorkDir, name); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("account", defaults.Account)
	v.SetDefault("python", defaults.Python)
	v.SetDefault("pip", defaults.Pip)
	v.SetDefault("uploader_path", defaults.UploaderPath)
	v.SetDefault("metadata_file", defaults.MetadataFile)
	v.SetDefault("clean", defaults.Clean)
	v.SetDefault("pull", defaults.Pull)
	v.SetDefault("verbosity", int(defaults.Verbosity))
	v.SetDefault("runtime", string(defaults.Runtime))
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("api_base_url", defaults.APIBaseURL)
	v.SetDefault("exclude_dirs", defaults.ExcludeDirs)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileBytes {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileBytes)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Concrete(false) because every field is optional.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge keeps defaults and env overrides working.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig writes a default config file unless one already exists,
// and returns its path.
func CreateDefaultConfig() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pyrelease configuration file\n")
	sb.WriteString("// Every field is optional. Environment variables PYRELEASE_<KEY> override values here.\n\n")

	if cfg.Account != "" {
		fmt.Fprintf(&sb, "account: %q\n", cfg.Account)
	}
	fmt.Fprintf(&sb, "python: %q\n", cfg.Python)
	fmt.Fprintf(&sb, "pip: %q\n", cfg.Pip)
	if cfg.UploaderPath != "" {
		fmt.Fprintf(&sb, "uploader_path: %q\n", cfg.UploaderPath)
	}
	fmt.Fprintf(&sb, "metadata_file: %q\n", cfg.MetadataFile)
	fmt.Fprintf(&sb, "clean: %v\n", cfg.Clean)
	fmt.Fprintf(&sb, "pull: %v\n", cfg.Pull)
	fmt.Fprintf(&sb, "verbosity: %d\n", cfg.Verbosity)
	fmt.Fprintf(&sb, "runtime: %q\n", cfg.Runtime)
	fmt.Fprintf(&sb, "timeout: %q\n", cfg.Timeout.String())
	fmt.Fprintf(&sb, "api_base_url: %q\n", cfg.APIBaseURL)

	if len(cfg.ExcludeDirs) > 0 {
		sb.WriteString("\nexclude_dirs: [\n")
		for _, d := range cfg.ExcludeDirs {
			fmt.Fprintf(&sb, "\t%q,\n", d)
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
