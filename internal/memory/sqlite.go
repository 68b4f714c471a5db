// internal/memory/sqlite.go
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// SQLiteProvider stores memory as ordered rows in a sqlite database. Fetch
// joins all rows with newlines, matching the file provider's appended-text
// shape, so the two providers are interchangeable behind the contract.
type SQLiteProvider struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Provider = (*SQLiteProvider)(nil)

// NewSQLiteProvider opens (creating if absent) the database at path and
// ensures the schema exists before returning.
func NewSQLiteProvider(path string, logger *zap.Logger) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening memory database %s: %w", path, err)
	}
	// Single-writer discipline; the loop is single-threaded anyway.
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS notes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing memory schema: %w", err)
	}
	return &SQLiteProvider{
		db:     db,
		logger: logger.Named("memory_sqlite"),
	}, nil
}

// Tools returns the standard fetch/write descriptor pair.
func (p *SQLiteProvider) Tools() []schemas.ToolDescriptor {
	return standardTools()
}

// HandleCall executes a named memory operation with the contract's
// best-effort failure semantics.
func (p *SQLiteProvider) HandleCall(ctx context.Context, name string, arguments map[string]any) (any, error) {
	switch name {
	case ToolFetchMemory:
		content, err := p.fetch(ctx)
		if err != nil {
			p.logger.Warn("Failed to read memory rows", zap.Error(err))
			return "", nil
		}
		return content, nil
	case ToolWriteMemory:
		content := contentArgument(arguments)
		if _, err := p.db.ExecContext(ctx, `INSERT INTO notes (content) VALUES (?)`, content); err != nil {
			p.logger.Warn("Failed to insert memory row", zap.Error(err))
		}
		return content, nil
	default:
		return nil, &UnsupportedOperationError{Tool: name}
	}
}

func (p *SQLiteProvider) fetch(ctx context.Context) (string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT content FROM notes ORDER BY id`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// Close releases the underlying database handle.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
