package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palekiwi-labs/test-runner-mcp/internal/config"
	"github.com/palekiwi-labs/test-runner-mcp/internal/cypress"
	"github.com/palekiwi-labs/test-runner-mcp/internal/report"
	"github.com/palekiwi-labs/test-runner-mcp/internal/runner"
	"github.com/palekiwi-labs/test-runner-mcp/internal/schema"
	"github.com/palekiwi-labs/test-runner-mcp/internal/services/mcp"
	"github.com/palekiwi-labs/test-runner-mcp/internal/tokenizer"
	"github.com/palekiwi-labs/test-runner-mcp/internal/types"
	"github.com/palekiwi-labs/test-runner-mcp/internal/validate"
)

const (
	serverInstructions = "Guarded test runner server. Tools: run_rspec (run RSpec tests for a file, " +
		"optionally focused on line numbers), run_rspec_args (run RSpec with a raw argument list), " +
		"run_cypress (run a single Cypress specification)."

	runRSpecDescription          = "Run RSpec tests for a validated spec file, optionally focused on line numbers"
	runRSpecArgumentsDescription = "Run RSpec with a raw argument list validated against the flag allowlist"
	runCypressDescription        = "Run a single Cypress specification and return its parsed JSON report"

	invalidParametersFormat = "invalid parameters: %w"
)

// runRSpecRequest carries the run_rspec tool arguments.
type runRSpecRequest struct {
	File  string `json:"file"`
	Lines []int  `json:"lines"`
}

// runRSpecArgumentsRequest carries the run_rspec_args tool arguments.
type runRSpecArgumentsRequest struct {
	Args []string `json:"args"`
}

// runCypressRequest carries the run_cypress tool arguments.
type runCypressRequest struct {
	File string `json:"file"`
}

// toolService binds the configured command templates, executors, and report
// tooling behind the MCP tool surface. All fields are set at construction and
// never mutated, so one service handles concurrent requests without locking.
type toolService struct {
	rspecCommand            runner.Command
	cypressCommand          runner.Command
	rspecExecutor           runner.Executor
	cypressExecutor         runner.Executor
	cypressWorkingDirectory string
	counter                 tokenizer.Counter
	logger                  *zap.Logger
}

// newToolService resolves configuration into a ready service.
func newToolService(applicationConfiguration config.ApplicationConfiguration, logger *zap.Logger) (*toolService, error) {
	rspecCommand, rspecParseError := runner.ParseCommand(applicationConfiguration.EffectiveRSpecCommand())
	if rspecParseError != nil {
		return nil, fmt.Errorf("configure rspec command: %w", rspecParseError)
	}
	cypressCommand, cypressParseError := runner.ParseCommand(applicationConfiguration.EffectiveCypressCommand())
	if cypressParseError != nil {
		return nil, fmt.Errorf("configure cypress command: %w", cypressParseError)
	}

	cypressWorkingDirectory := applicationConfiguration.EffectiveCypressWorkingDirectory()

	var counter tokenizer.Counter
	if applicationConfiguration.Tokens.Enabled != nil && *applicationConfiguration.Tokens.Enabled {
		builtCounter, _, counterError := tokenizer.NewCounter(tokenizer.Config{Model: applicationConfiguration.Tokens.Model})
		if counterError != nil {
			return nil, counterError
		}
		counter = builtCounter
	}

	return &toolService{
		rspecCommand:            rspecCommand,
		cypressCommand:          cypressCommand,
		rspecExecutor:           runner.NewExecutor(applicationConfiguration.RSpec.WorkingDirectory),
		cypressExecutor:         runner.NewExecutor(cypressWorkingDirectory),
		cypressWorkingDirectory: cypressWorkingDirectory,
		counter:                 counter,
		logger:                  logger,
	}, nil
}

// buildServer assembles the MCP server around a tool service.
func buildServer(applicationConfiguration config.ApplicationConfiguration, listenAddress string, logger *zap.Logger) (mcp.Server, error) {
	service, serviceError := newToolService(applicationConfiguration, logger)
	if serviceError != nil {
		return mcp.Server{}, serviceError
	}
	tools, toolsError := toolDescriptors()
	if toolsError != nil {
		return mcp.Server{}, toolsError
	}
	return mcp.NewServer(mcp.Config{
		Address:      listenAddress,
		Instructions: serverInstructions,
		Tools:        tools,
		Executors: map[string]mcp.ToolExecutor{
			types.ToolRunRSpec:          mcp.ToolExecutorFunc(service.executeRunRSpec),
			types.ToolRunRSpecArguments: mcp.ToolExecutorFunc(service.executeRunRSpecArguments),
			types.ToolRunCypress:        mcp.ToolExecutorFunc(service.executeRunCypress),
		},
		Validator: mcp.PayloadValidatorFunc(schema.ValidateToolPayload),
		Logger:    logger,
	}), nil
}

// toolDescriptors publishes every tool with its embedded argument schema.
func toolDescriptors() ([]mcp.Tool, error) {
	descriptors := []struct {
		name        string
		description string
	}{
		{name: types.ToolRunRSpec, description: runRSpecDescription},
		{name: types.ToolRunRSpecArguments, description: runRSpecArgumentsDescription},
		{name: types.ToolRunCypress, description: runCypressDescription},
	}
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, descriptor := range descriptors {
		inputSchema, schemaError := schema.ToolSchemaJSON(descriptor.name)
		if schemaError != nil {
			return nil, schemaError
		}
		tools = append(tools, mcp.Tool{
			Name:        descriptor.name,
			Description: descriptor.description,
			InputSchema: inputSchema,
		})
	}
	return tools, nil
}

// executeRunRSpec validates a file target and runs RSpec for it.
func (service *toolService) executeRunRSpec(executionContext context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload runRSpecRequest
	if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode run_rspec request: %w", decodeError))
	}
	if validationError := validate.ValidatePath(payload.File, validate.FileKindRSpec); validationError != nil {
		return mcp.ToolResponse{}, invalidParameters(validationError)
	}
	if validationError := validate.ValidateLineNumbers(payload.Lines); validationError != nil {
		return mcp.ToolResponse{}, invalidParameters(validationError)
	}

	target := types.FileTarget{FilePath: payload.File, LineNumbers: payload.Lines}
	targetArgument := target.Argument()
	runIdentifier := uuid.NewString()
	service.logger.Info("running rspec",
		zap.String("run", runIdentifier),
		zap.String("target", targetArgument))

	result, runError := service.rspecExecutor.Run(executionContext, service.rspecCommand, []string{targetArgument})
	if runError != nil {
		return mcp.ToolResponse{}, runError
	}
	service.logger.Info("rspec finished",
		zap.String("run", runIdentifier),
		zap.Int("exitCode", result.ExitCode))

	return service.respond(report.FormatRSpecTarget(targetArgument, result), types.FormatRaw), nil
}

// executeRunRSpecArguments sanitizes a raw argument list and runs RSpec with it.
func (service *toolService) executeRunRSpecArguments(executionContext context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload runRSpecArgumentsRequest
	if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode run_rspec_args request: %w", decodeError))
	}
	if validationError := validate.ValidateArguments(payload.Args); validationError != nil {
		return mcp.ToolResponse{}, invalidParameters(validationError)
	}

	commandLine := service.rspecCommand.CommandLine(payload.Args)
	runIdentifier := uuid.NewString()
	service.logger.Info("running rspec with raw arguments",
		zap.String("run", runIdentifier),
		zap.String("command", commandLine))

	result, runError := service.rspecExecutor.Run(executionContext, service.rspecCommand, payload.Args)
	if runError != nil {
		return mcp.ToolResponse{}, runError
	}
	service.logger.Info("rspec finished",
		zap.String("run", runIdentifier),
		zap.Int("exitCode", result.ExitCode))

	return service.respond(report.FormatRSpecArguments(commandLine, result), types.FormatRaw), nil
}

// executeRunCypress validates a specification path, runs Cypress, and feeds
// its stdout through the output pipeline.
func (service *toolService) executeRunCypress(executionContext context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload runCypressRequest
	if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode run_cypress request: %w", decodeError))
	}
	if validationError := validate.ValidatePath(payload.File, validate.FileKindCypress); validationError != nil {
		return mcp.ToolResponse{}, invalidParameters(validationError)
	}

	normalizedPath := validate.NormalizeWorkingDirectory(payload.File, service.cypressWorkingDirectory)
	runIdentifier := uuid.NewString()
	service.logger.Info("running cypress",
		zap.String("run", runIdentifier),
		zap.String("specification", normalizedPath))

	result, runError := service.cypressExecutor.Run(executionContext, service.cypressCommand, []string{normalizedPath})
	if runError != nil {
		return mcp.ToolResponse{}, runError
	}

	outcome := cypress.Process(result.Stdout)
	if outcome.Degraded() {
		service.logger.Warn("cypress post-processing degraded",
			zap.String("run", runIdentifier),
			zap.String("stage", outcome.DegradedStage),
			zap.String("detail", outcome.DegradedDetail))
	}
	service.logger.Info("cypress finished",
		zap.String("run", runIdentifier),
		zap.Int("exitCode", result.ExitCode))

	return service.respond(report.FormatCypress(payload.File, result, outcome), types.FormatRaw), nil
}

// respond wraps report text into a tool response, annotating it with a token
// estimate when counting is enabled. A counting failure never fails the
// response; the annotation is simply omitted.
func (service *toolService) respond(reportText string, format string) mcp.ToolResponse {
	response := mcp.ToolResponse{Output: reportText, Format: format}
	if service.counter != nil {
		tokens, countError := service.counter.CountString(reportText)
		if countError == nil {
			response.Tokens = tokens
		}
	}
	return response
}

// invalidParameters marks a validation failure as the caller's fault.
func invalidParameters(validationError error) error {
	return mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf(invalidParametersFormat, validationError))
}
