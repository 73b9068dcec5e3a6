package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/palekiwi-labs/test-runner-mcp/internal/utils"
)

type configTestCase struct {
	name                 string
	globalContent        string
	localContent         string
	explicitPath         string
	expectRSpecCommand   string
	expectCypressWorkdir string
	expectHostname       string
	expectPort           *int
	expectTokensEnabled  *bool
	expectTokenModel     string
}

func intPointer(value int) *int {
	pointer := value
	return &pointer
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:                 "local_overrides_global",
			globalContent:        "rspec:\n  command: bundle exec rspec\nserver:\n  hostname: 0.0.0.0\n  port: 9000\n",
			localContent:         "rspec:\n  command: docker compose exec -T test bundle exec rspec\ncypress:\n  working_directory: cypress\n",
			expectRSpecCommand:   "docker compose exec -T test bundle exec rspec",
			expectCypressWorkdir: "cypress",
			expectHostname:       "0.0.0.0",
			expectPort:           intPointer(9000),
		},
		{
			name:               "explicit_path_only",
			globalContent:      "server:\n  hostname: 10.0.0.1\n",
			localContent:       "",
			explicitPath:       "custom.yaml",
			expectRSpecCommand: "rspec",
			expectHostname:     "10.0.0.1",
		},
		{
			name:                "tokens_section_applies",
			globalContent:       "tokens:\n  enabled: true\n  model: gpt-4o\n",
			expectTokensEnabled: boolPointer(true),
			expectTokenModel:    "gpt-4o",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			homeDirectory := t.TempDir()
			workingDirectory := t.TempDir()
			t.Setenv("HOME", homeDirectory)

			if testCase.globalContent != "" {
				globalDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
				if err := os.MkdirAll(globalDirectory, 0o755); err != nil {
					t.Fatalf("create global directory: %v", err)
				}
				globalPath := filepath.Join(globalDirectory, utils.GlobalConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o644); err != nil {
					t.Fatalf("write global configuration: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDirectory, utils.ConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o644); err != nil {
					t.Fatalf("write local configuration: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				explicitPath := filepath.Join(workingDirectory, testCase.explicitPath)
				if err := os.WriteFile(explicitPath, []byte("rspec:\n  command: rspec\n"), 0o644); err != nil {
					t.Fatalf("write explicit configuration: %v", err)
				}
			}

			configuration, loadError := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDirectory,
				ExplicitFilePath: testCase.explicitPath,
			})
			if loadError != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", loadError)
			}

			if testCase.expectRSpecCommand != "" && configuration.RSpec.Command != testCase.expectRSpecCommand {
				t.Fatalf("expected rspec command %q, got %q", testCase.expectRSpecCommand, configuration.RSpec.Command)
			}
			if testCase.expectCypressWorkdir != "" && configuration.Cypress.WorkingDirectory != testCase.expectCypressWorkdir {
				t.Fatalf("expected cypress working directory %q, got %q", testCase.expectCypressWorkdir, configuration.Cypress.WorkingDirectory)
			}
			if testCase.expectHostname != "" && configuration.Server.Hostname != testCase.expectHostname {
				t.Fatalf("expected hostname %q, got %q", testCase.expectHostname, configuration.Server.Hostname)
			}
			if testCase.expectPort != nil {
				if configuration.Server.Port == nil || *configuration.Server.Port != *testCase.expectPort {
					t.Fatalf("expected port %d, got %v", *testCase.expectPort, configuration.Server.Port)
				}
			}
			if testCase.expectTokensEnabled != nil {
				if configuration.Tokens.Enabled == nil || *configuration.Tokens.Enabled != *testCase.expectTokensEnabled {
					t.Fatalf("expected tokens enabled %v, got %v", *testCase.expectTokensEnabled, configuration.Tokens.Enabled)
				}
			}
			if testCase.expectTokenModel != "" && configuration.Tokens.Model != testCase.expectTokenModel {
				t.Fatalf("expected token model %q, got %q", testCase.expectTokenModel, configuration.Tokens.Model)
			}
		})
	}
}

func TestEffectiveValuesFallBackToDefaults(t *testing.T) {
	t.Parallel()

	var configuration ApplicationConfiguration
	if hostname := configuration.EffectiveHostname(); hostname != DefaultHostname {
		t.Fatalf("expected default hostname %q, got %q", DefaultHostname, hostname)
	}
	if port := configuration.EffectivePort(); port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, port)
	}
	if command := configuration.EffectiveRSpecCommand(); command != DefaultRSpecCommand {
		t.Fatalf("expected default rspec command %q, got %q", DefaultRSpecCommand, command)
	}
	if command := configuration.EffectiveCypressCommand(); command != DefaultCypressCommand {
		t.Fatalf("expected default cypress command %q, got %q", DefaultCypressCommand, command)
	}
	if workingDirectory := configuration.EffectiveCypressWorkingDirectory(); workingDirectory != DefaultCypressWorkingDirectory {
		t.Fatalf("expected default working directory %q, got %q", DefaultCypressWorkingDirectory, workingDirectory)
	}
}

func TestLoadApplicationConfigurationRejectsDirectoryPath(t *testing.T) {
	homeDirectory := t.TempDir()
	workingDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)

	directoryAsConfig := filepath.Join(workingDirectory, utils.ConfigFileName)
	if err := os.MkdirAll(directoryAsConfig, 0o755); err != nil {
		t.Fatalf("create directory: %v", err)
	}

	if _, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory}); loadError == nil {
		t.Fatalf("expected error when configuration path is a directory")
	}
}
