// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/palekiwi-labs/test-runner-mcp/internal/config"
	"github.com/palekiwi-labs/test-runner-mcp/internal/utils"
)

const (
	hostnameFlagName = "hostname"
	portFlagName     = "port"
	configFlagName   = "config"
	versionFlagName  = "version"
	versionTemplate  = "test-runner-mcp version: %s\n"

	rootUse              = "test-runner-mcp"
	rootShortDescription = "test runner MCP server"
	rootLongDescription  = `test-runner-mcp exposes guarded test execution over HTTP.
It validates caller-supplied test targets and RSpec arguments against strict
allowlists, runs the configured test runner exactly once per request, and
normalizes Cypress reporter output into structured results.`

	serveUse              = "serve"
	serveAlias            = "s"
	serveShortDescription = "start the MCP server (" + serveAlias + ")"
	serveLongDescription  = `Start the HTTP MCP server and block until interrupted.
Tool metadata is served on /tools and tool calls are accepted on /tools/<name>.`
	serveUsageExample = `  # Serve on the default address
  test-runner-mcp serve

  # Bind a specific interface and port
  test-runner-mcp serve --hostname 0.0.0.0 --port 8900`

	hostnameFlagDescription = "interface to bind"
	portFlagDescription     = "TCP port to bind"
	configFlagDescription   = "path to a configuration file"
	versionFlagDescription  = "display application version"

	serverListeningMessage = "test runner MCP server is running"
	toolEndpointMessage    = "tool endpoint"
	toolListEndpointFormat = "http://%s/tools"
	serverStoppedMessage   = "server stopped"
)

// Execute runs the test-runner-mcp application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(createServeCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// serveOptions stores flag values for the serve command.
type serveOptions struct {
	hostname          string
	port              int
	configurationPath string
}

// createServeCommand returns the serve subcommand.
func createServeCommand() *cobra.Command {
	var options serveOptions

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Aliases: []string{serveAlias},
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			loggerInstance, loggerError := utils.NewApplicationLogger()
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			defer func() { _ = loggerInstance.Sync() }()

			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
				ExplicitFilePath: options.configurationPath,
			})
			if configurationError != nil {
				return configurationError
			}

			listenAddress := resolveListenAddress(applicationConfiguration, options, command)

			signalContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			server, buildError := buildServer(applicationConfiguration, listenAddress, loggerInstance)
			if buildError != nil {
				return buildError
			}

			runError := server.Run(signalContext, func(boundAddress string) {
				loggerInstance.Info(serverListeningMessage, zap.String("address", boundAddress))
				loggerInstance.Info(toolEndpointMessage, zap.String("url", fmt.Sprintf(toolListEndpointFormat, boundAddress)))
			})
			loggerInstance.Info(serverStoppedMessage)
			return runError
		},
	}
	serveCommand.Flags().StringVarP(&options.hostname, hostnameFlagName, "H", "", hostnameFlagDescription)
	serveCommand.Flags().IntVarP(&options.port, portFlagName, "p", 0, portFlagDescription)
	serveCommand.Flags().StringVar(&options.configurationPath, configFlagName, "", configFlagDescription)
	return serveCommand
}

// resolveListenAddress combines configuration defaults with flag overrides;
// flags win when set.
func resolveListenAddress(applicationConfiguration config.ApplicationConfiguration, options serveOptions, command *cobra.Command) string {
	hostname := applicationConfiguration.EffectiveHostname()
	if command.Flags().Changed(hostnameFlagName) {
		hostname = options.hostname
	}
	port := applicationConfiguration.EffectivePort()
	if command.Flags().Changed(portFlagName) {
		port = options.port
	}
	return net.JoinHostPort(hostname, strconv.Itoa(port))
}
