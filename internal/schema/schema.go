// Package schema provides JSON Schema validation for tool argument payloads.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/palekiwi-labs/test-runner-mcp/internal/types"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaFileNameFormat = "schemas/%s.schema.json"

var (
	compiledSchemas map[string]*jsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

// toolNames lists every tool whose argument schema is embedded.
var toolNames = []string{
	types.ToolRunRSpec,
	types.ToolRunRSpecArguments,
	types.ToolRunCypress,
}

// compileAll compiles every embedded tool schema once.
func compileAll() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, toolName := range toolNames {
			schemaFileName := fmt.Sprintf(schemaFileNameFormat, toolName)
			schemaData, readError := schemaFS.ReadFile(schemaFileName)
			if readError != nil {
				compileErr = fmt.Errorf("read schema %s: %w", schemaFileName, readError)
				return
			}
			schemaDocument, unmarshalError := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
			if unmarshalError != nil {
				compileErr = fmt.Errorf("unmarshal schema %s: %w", schemaFileName, unmarshalError)
				return
			}
			if addError := compiler.AddResource(schemaFileName, schemaDocument); addError != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", schemaFileName, addError)
				return
			}
		}
		compiled := make(map[string]*jsonschema.Schema, len(toolNames))
		for _, toolName := range toolNames {
			schemaFileName := fmt.Sprintf(schemaFileNameFormat, toolName)
			compiledSchema, schemaCompileError := compiler.Compile(schemaFileName)
			if schemaCompileError != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", schemaFileName, schemaCompileError)
				return
			}
			compiled[toolName] = compiledSchema
		}
		compiledSchemas = compiled
	})
	return compileErr
}

// ValidateToolPayload validates a raw argument payload against the named
// tool's embedded schema. An empty payload is validated as an empty object so
// required-property violations surface consistently.
func ValidateToolPayload(toolName string, payload []byte) error {
	if compileError := compileAll(); compileError != nil {
		return compileError
	}
	compiledSchema, schemaKnown := compiledSchemas[toolName]
	if !schemaKnown {
		return fmt.Errorf("no argument schema for tool %s", toolName)
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	var decodedPayload any
	if decodeError := json.Unmarshal(payload, &decodedPayload); decodeError != nil {
		return fmt.Errorf("invalid JSON: %w", decodeError)
	}
	if validateError := compiledSchema.Validate(decodedPayload); validateError != nil {
		return fmt.Errorf("%s arguments failed validation: %w", toolName, validateError)
	}
	return nil
}

// ToolSchemaJSON returns the embedded schema document for the named tool, for
// publication alongside the tool listing.
func ToolSchemaJSON(toolName string) (json.RawMessage, error) {
	schemaFileName := fmt.Sprintf(schemaFileNameFormat, toolName)
	schemaData, readError := schemaFS.ReadFile(schemaFileName)
	if readError != nil {
		return nil, fmt.Errorf("read schema %s: %w", schemaFileName, readError)
	}
	return json.RawMessage(schemaData), nil
}
