// internal/memory/provider.go
package memory

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// Tool names every provider must recognize.
const (
	ToolFetchMemory = "fetch_memory"
	ToolWriteMemory = "write_memory"
)

// Provider supplies persistent cross-turn context to the agent: a set of
// callable tool descriptors, and a handler that executes a named call. The
// turn loop never sees the backing storage.
//
// Contract: Tools is pure and stable for the provider's lifetime.
// HandleCall must recognize fetch_memory (no arguments; returns the full
// current memory content, or an empty string if none exists or reading
// fails; it never returns a read error) and write_memory (required string
// argument "content"; appends it and returns the appended content; write
// failures are swallowed). An unrecognized name fails with
// *UnsupportedOperationError.
type Provider interface {
	Tools() []schemas.ToolDescriptor
	HandleCall(ctx context.Context, name string, arguments map[string]any) (any, error)
}

// UnsupportedOperationError reports a tool name the provider does not handle.
type UnsupportedOperationError struct {
	Tool string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("memory provider cannot handle tool %q", e.Tool)
}

// standardTools is the descriptor set shared by all stock providers.
func standardTools() []schemas.ToolDescriptor {
	return []schemas.ToolDescriptor{
		schemas.FunctionTool(
			ToolFetchMemory,
			"Fetch the agent's persistent memory",
			nil, nil,
		),
		schemas.FunctionTool(
			ToolWriteMemory,
			"Append content to the agent's persistent memory",
			map[string]schemas.Property{
				"content": {Type: "string", Description: "Content to append to memory"},
			},
			[]string{"content"},
		),
	}
}

// contentArgument extracts the write_memory content argument, tolerating a
// missing or mistyped value the same way a lossy append tolerates failure.
func contentArgument(arguments map[string]any) string {
	if arguments == nil {
		return ""
	}
	s, _ := arguments["content"].(string)
	return s
}
