// internal/memory/file.go
package memory

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// FileProvider is a memory provider backed by a single plain-text file.
// Fetch returns the entire file; write appends a newline followed by the
// content. The file is created empty if absent at construction time.
type FileProvider struct {
	path   string
	logger *zap.Logger
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider ensures the backing file exists and is readable before
// returning the provider.
func NewFileProvider(path string, logger *zap.Logger) (*FileProvider, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating memory file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing memory file %s: %w", path, err)
	}
	return &FileProvider{
		path:   path,
		logger: logger.Named("memory_file"),
	}, nil
}

// Tools returns the standard fetch/write descriptor pair.
func (p *FileProvider) Tools() []schemas.ToolDescriptor {
	return standardTools()
}

// HandleCall executes a named memory operation. See the Provider contract
// for the failure semantics of each tool.
func (p *FileProvider) HandleCall(ctx context.Context, name string, arguments map[string]any) (any, error) {
	switch name {
	case ToolFetchMemory:
		data, err := os.ReadFile(p.path)
		if err != nil {
			// Best effort: an unreadable store means "no memory", not an error.
			p.logger.Warn("Failed to read memory file", zap.String("path", p.path), zap.Error(err))
			return "", nil
		}
		return string(data), nil
	case ToolWriteMemory:
		content := contentArgument(arguments)
		if err := p.append(content); err != nil {
			// The write is lossy: the call still answers with the content
			// that was attempted so the turn can continue.
			p.logger.Warn("Failed to append to memory file", zap.String("path", p.path), zap.Error(err))
		}
		return content, nil
	default:
		return nil, &UnsupportedOperationError{Tool: name}
	}
}

func (p *FileProvider) append(content string) error {
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString("\n" + content); err != nil {
		return err
	}
	return nil
}
