// Package mcp serves tool metadata and dispatches tool calls over HTTP. It is
// the transport edge of the server: argument payloads are schema-checked here
// before any executor sees them, and executor failures are mapped onto HTTP
// status codes.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	toolListPath            = "/tools"
	rootPath                = "/"
	toolCallPrefix          = "/tools/"
	errorFieldName          = "error"
	errorToolNotFound       = "tool not found"
)

// Tool describes one callable tool: its name, a human-readable description,
// and the JSON Schema its argument payload must satisfy.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolRequest holds the raw argument payload supplied by clients.
type ToolRequest struct {
	Payload json.RawMessage
}

// ToolResponse contains the outcome of a tool execution.
type ToolResponse struct {
	Output string `json:"output"`
	Format string `json:"format"`
	Tokens int    `json:"tokens,omitempty"`
}

// ToolExecutor executes a tool call based on an incoming request.
type ToolExecutor interface {
	Execute(ctx context.Context, request ToolRequest) (ToolResponse, error)
}

// ToolExecutorFunc adapts a function into a ToolExecutor.
type ToolExecutorFunc func(context.Context, ToolRequest) (ToolResponse, error)

// Execute invokes the underlying function.
func (executor ToolExecutorFunc) Execute(ctx context.Context, request ToolRequest) (ToolResponse, error) {
	return executor(ctx, request)
}

// PayloadValidator checks a raw argument payload before dispatch. A non-nil
// error rejects the call with HTTP 400 and never reaches the executor.
type PayloadValidator interface {
	ValidateToolPayload(toolName string, payload []byte) error
}

// PayloadValidatorFunc adapts a function into a PayloadValidator.
type PayloadValidatorFunc func(toolName string, payload []byte) error

// ValidateToolPayload invokes the underlying function.
func (validator PayloadValidatorFunc) ValidateToolPayload(toolName string, payload []byte) error {
	return validator(toolName, payload)
}

// ToolExecutionError represents a failure accompanied by an HTTP status code.
type ToolExecutionError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (executionError ToolExecutionError) Error() string {
	return executionError.err.Error()
}

// Unwrap exposes the wrapped error.
func (executionError ToolExecutionError) Unwrap() error {
	return executionError.err
}

// StatusCode reports the associated HTTP status code.
func (executionError ToolExecutionError) StatusCode() int {
	return executionError.statusCode
}

// NewToolExecutionError creates a new ToolExecutionError.
func NewToolExecutionError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return ToolExecutionError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the MCP server.
type Config struct {
	Address         string
	Instructions    string
	Tools           []Tool
	Executors       map[string]ToolExecutor
	Validator       PayloadValidator
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
}

// Server serves tool metadata and executes tool calls over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Tools == nil {
		normalized.Tools = []Tool{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]ToolExecutor{}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Run starts the MCP server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	router := http.NewServeMux()
	router.HandleFunc(toolListPath, server.handleToolList)
	router.HandleFunc(rootPath, server.handleRoot)
	router.HandleFunc(toolCallPrefix, server.handleToolCall)

	httpServer := &http.Server{Handler: router}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve MCP: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown MCP: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleToolList(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Instructions string `json:"instructions,omitempty"`
		Tools        []Tool `json:"tools"`
	}{Instructions: server.config.Instructions, Tools: server.config.Tools}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleToolCall(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	toolName := strings.TrimPrefix(request.URL.Path, toolCallPrefix)
	if toolName == "" || strings.Contains(toolName, "/") {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	executor, found := server.config.Executors[toolName]
	if !found {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	body, readErr := io.ReadAll(request.Body)
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("read request body: %v", readErr)})
		return
	}
	if server.config.Validator != nil {
		if validateErr := server.config.Validator.ValidateToolPayload(toolName, body); validateErr != nil {
			server.config.Logger.Info("rejected tool payload",
				zap.String("tool", toolName),
				zap.String("reason", validateErr.Error()))
			server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("invalid parameters: %v", validateErr)})
			return
		}
	}
	toolRequest := ToolRequest{Payload: json.RawMessage(body)}
	toolResponse, executeErr := executor.Execute(request.Context(), toolRequest)
	if executeErr != nil {
		statusCode := server.statusCodeFromError(executeErr)
		server.config.Logger.Info("tool call failed",
			zap.String("tool", toolName),
			zap.Int("status", statusCode),
			zap.String("reason", executeErr.Error()))
		server.writeJSON(writer, statusCode, map[string]string{errorFieldName: executeErr.Error()})
		return
	}
	server.config.Logger.Debug("tool call completed", zap.String("tool", toolName))
	server.writeJSON(writer, http.StatusOK, toolResponse)
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) statusCodeFromError(err error) int {
	var executionError ToolExecutionError
	if errors.As(err, &executionError) {
		return executionError.StatusCode()
	}
	return http.StatusInternalServerError
}
