package main

import (
	"fmt"

	"github.com/palekiwi-labs/test-runner-mcp/internal/cli"
	"github.com/palekiwi-labs/test-runner-mcp/internal/utils"
)

// main is the entry point for the test-runner-mcp command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
