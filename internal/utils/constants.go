package utils

const (
	// ConfigFileName is the local configuration file discovered in the
	// working directory.
	ConfigFileName = ".test-runner-mcp.yaml"
	// GlobalConfigDirectoryName is the per-user configuration directory under
	// the home directory.
	GlobalConfigDirectoryName = ".test-runner-mcp"
	// GlobalConfigFileName is the configuration file inside the global directory.
	GlobalConfigFileName = "config.yaml"
	// GitDirectoryName is the repository metadata directory used for version discovery.
	GitDirectoryName = ".git"

	// LoggerInitializationFailedMessageFormat reports a failure to construct the logger.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal application errors.
	ApplicationExecutionFailedMessage = "application execution failed"
)
