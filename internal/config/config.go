// Package config loads and merges application configuration: command
// templates per test kind, the Cypress working directory, the listen address,
// and token-count reporting. Configuration is read once at startup and never
// mutated afterwards, so it is shared across concurrent requests without
// locking.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/palekiwi-labs/test-runner-mcp/internal/utils"
)

const (
	// DefaultHostname is the address the server binds when none is configured.
	DefaultHostname = "127.0.0.1"
	// DefaultPort is the TCP port the server binds when none is configured.
	DefaultPort = 30301
	// DefaultRSpecCommand invokes RSpec through Bundler with the terse
	// progress format.
	DefaultRSpecCommand = "bundle exec rspec --format progress"
	// DefaultCypressCommand invokes the Cypress runner with the JSON reporter;
	// the validated specification path is appended after --spec.
	DefaultCypressCommand = "npx cypress run --reporter json --spec"
	// DefaultCypressWorkingDirectory is the "current directory" sentinel.
	DefaultCypressWorkingDirectory = "."
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds server and per-runner configuration.
type ApplicationConfiguration struct {
	Server  ServerConfiguration `mapstructure:"server"`
	RSpec   RunnerConfiguration `mapstructure:"rspec"`
	Cypress RunnerConfiguration `mapstructure:"cypress"`
	Tokens  TokenConfiguration  `mapstructure:"tokens"`
}

// ServerConfiguration defines where the MCP server listens.
type ServerConfiguration struct {
	Hostname string `mapstructure:"hostname"`
	Port     *int   `mapstructure:"port"`
}

// RunnerConfiguration defines one test runner's command template and the
// working directory its subprocess runs in.
type RunnerConfiguration struct {
	Command          string `mapstructure:"command"`
	WorkingDirectory string `mapstructure:"working_directory"`
}

// TokenConfiguration controls token-count annotation of reports.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local
// files, the local file winning on conflicts. Missing files are not errors.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var configuration ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&configuration); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	result.Server = result.Server.merge(override.Server)
	result.RSpec = result.RSpec.merge(override.RSpec)
	result.Cypress = result.Cypress.merge(override.Cypress)
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (configuration ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := configuration
	if override.Hostname != "" {
		result.Hostname = override.Hostname
	}
	if override.Port != nil {
		result.Port = cloneInt(override.Port)
	}
	return result
}

func (configuration RunnerConfiguration) merge(override RunnerConfiguration) RunnerConfiguration {
	result := configuration
	if override.Command != "" {
		result.Command = override.Command
	}
	if override.WorkingDirectory != "" {
		result.WorkingDirectory = override.WorkingDirectory
	}
	return result
}

func (configuration TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// EffectiveHostname returns the configured hostname or the default.
func (configuration ApplicationConfiguration) EffectiveHostname() string {
	if configuration.Server.Hostname != "" {
		return configuration.Server.Hostname
	}
	return DefaultHostname
}

// EffectivePort returns the configured port or the default.
func (configuration ApplicationConfiguration) EffectivePort() int {
	if configuration.Server.Port != nil {
		return *configuration.Server.Port
	}
	return DefaultPort
}

// EffectiveRSpecCommand returns the configured RSpec command template or the default.
func (configuration ApplicationConfiguration) EffectiveRSpecCommand() string {
	if configuration.RSpec.Command != "" {
		return configuration.RSpec.Command
	}
	return DefaultRSpecCommand
}

// EffectiveCypressCommand returns the configured Cypress command template or the default.
func (configuration ApplicationConfiguration) EffectiveCypressCommand() string {
	if configuration.Cypress.Command != "" {
		return configuration.Cypress.Command
	}
	return DefaultCypressCommand
}

// EffectiveCypressWorkingDirectory returns the configured Cypress working
// directory or the "." sentinel.
func (configuration ApplicationConfiguration) EffectiveCypressWorkingDirectory() string {
	if configuration.Cypress.WorkingDirectory != "" {
		return configuration.Cypress.WorkingDirectory
	}
	return DefaultCypressWorkingDirectory
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
