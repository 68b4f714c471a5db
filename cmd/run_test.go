package cmd

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/agent"
	"github.com/xkilldash9x/cuakit/internal/config"
	"github.com/xkilldash9x/cuakit/internal/memory"
)

// cannedModel answers every call with a fixed assistant message and records
// each input it received.
type cannedModel struct {
	reply string
	calls [][]schemas.Item
}

func (m *cannedModel) CreateResponse(ctx context.Context, input []schemas.Item, tools []schemas.ToolDescriptor) (*schemas.ModelResponse, error) {
	m.calls = append(m.calls, append([]schemas.Item(nil), input...))
	return &schemas.ModelResponse{
		Output: schemas.ItemList{schemas.Message{
			Role:    schemas.RoleAssistant,
			Content: []schemas.ContentPart{{Type: "output_text", Text: m.reply}},
		}},
	}, nil
}

// inertDesktop is the smallest possible backend: every action succeeds and
// does nothing.
type inertDesktop struct{}

func (inertDesktop) Dimensions() (int, int)                               { return 1280, 720 }
func (inertDesktop) Environment() schemas.Environment                     { return schemas.EnvUbuntu }
func (inertDesktop) Screenshot(ctx context.Context) (string, error)       { return "cGl4", nil }
func (inertDesktop) Click(ctx context.Context, x, y int, b string) error  { return nil }
func (inertDesktop) DoubleClick(ctx context.Context, x, y int) error      { return nil }
func (inertDesktop) Move(ctx context.Context, x, y int) error             { return nil }
func (inertDesktop) Drag(ctx context.Context, path []schemas.Point) error { return nil }
func (inertDesktop) Scroll(ctx context.Context, x, y, sx, sy int) error   { return nil }
func (inertDesktop) Type(ctx context.Context, text string) error          { return nil }
func (inertDesktop) Keypress(ctx context.Context, keys []string) error    { return nil }
func (inertDesktop) Wait(ctx context.Context) error                       { return nil }

func newLoopAgent(t *testing.T, model *cannedModel) *agent.Agent {
	t.Helper()
	ag, err := agent.New(model, inertDesktop{}, nil, agent.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	return ag
}

func TestNewComputer_UnknownBackend(t *testing.T) {
	_, _, err := newComputer(context.Background(), "teleporter", config.NewDefaultConfig(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleporter")
	assert.Contains(t, err.Error(), "local-browser")
}

func TestNewMemoryProviders_NoneConfigured(t *testing.T) {
	providers, cleanup, err := newMemoryProviders(config.MemoryConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Empty(t, providers)
}

func TestNewMemoryProviders_FileBeforeSQLite(t *testing.T) {
	dir := t.TempDir()
	providers, cleanup, err := newMemoryProviders(config.MemoryConfig{
		FilePath:   filepath.Join(dir, "memory.txt"),
		SQLitePath: filepath.Join(dir, "memory.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	// Dispatch resolves tool names in provider order, so construction order
	// is part of the behavior, not an accident.
	require.Len(t, providers, 2)
	assert.IsType(t, (*memory.FileProvider)(nil), providers[0])
	assert.IsType(t, (*memory.SQLiteProvider)(nil), providers[1])
}

func TestApplyRunFlags_LayersOverConfig(t *testing.T) {
	saved := runFlags
	defer func() { runFlags = saved }()

	runFlags.debug = true
	runFlags.startURL = "https://news.ycombinator.com"
	runFlags.memoryFile = "/tmp/mem.txt"

	cfg := config.NewDefaultConfig()
	applyRunFlags(cfg)

	assert.True(t, cfg.Agent.Debug)
	assert.Equal(t, "https://news.ycombinator.com", cfg.Browser.StartURL)
	assert.Equal(t, "/tmp/mem.txt", cfg.Memory.FilePath)
	// Untouched flags leave config values alone.
	assert.False(t, cfg.Agent.ShowImages)
	assert.Empty(t, cfg.Memory.SQLitePath)
}

func TestInteractiveLoop_ExitRunsNoTurn(t *testing.T) {
	model := &cannedModel{reply: "ok"}
	ag := newLoopAgent(t, model)

	stdin := bufio.NewReader(strings.NewReader("exit\n"))
	err := interactiveLoop(context.Background(), ag, stdin, "")
	require.NoError(t, err)
	assert.Empty(t, model.calls)
}

func TestInteractiveLoop_EOFEndsCleanly(t *testing.T) {
	model := &cannedModel{reply: "ok"}
	ag := newLoopAgent(t, model)

	stdin := bufio.NewReader(strings.NewReader(""))
	err := interactiveLoop(context.Background(), ag, stdin, "")
	require.NoError(t, err)
	assert.Empty(t, model.calls)
}

func TestInteractiveLoop_BlankLinesSkipped(t *testing.T) {
	model := &cannedModel{reply: "ok"}
	ag := newLoopAgent(t, model)

	stdin := bufio.NewReader(strings.NewReader("\n   \nexit\n"))
	err := interactiveLoop(context.Background(), ag, stdin, "")
	require.NoError(t, err)
	assert.Empty(t, model.calls)
}

func TestInteractiveLoop_HistoryAccumulatesAcrossTurns(t *testing.T) {
	model := &cannedModel{reply: "noted"}
	ag := newLoopAgent(t, model)

	// The initial input feeds the first turn, then lines come from stdin.
	stdin := bufio.NewReader(strings.NewReader("second thing\nexit\n"))
	err := interactiveLoop(context.Background(), ag, stdin, "first thing")
	require.NoError(t, err)

	require.Len(t, model.calls, 2)
	// The second turn's call carries the whole prior exchange plus the new
	// user line.
	second := model.calls[1]
	require.Len(t, second, 3)
	assertRoleText(t, second[0], schemas.RoleUser, "first thing")
	assertRoleText(t, second[1], schemas.RoleAssistant, "noted")
	assertRoleText(t, second[2], schemas.RoleUser, "second thing")
}

func assertRoleText(t *testing.T, item schemas.Item, role schemas.Role, text string) {
	t.Helper()
	msg, ok := item.(schemas.Message)
	require.True(t, ok)
	assert.Equal(t, role, msg.Role)
	assert.Equal(t, text, msg.Text())
}

func TestPromptSafetyCheck(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{" y \n", true},
		{"n\n", false},
		{"yes\n", false}, // only the single letter acknowledges
		{"", false},      // EOF rejects
	}
	for _, tc := range cases {
		ack := promptSafetyCheck(bufio.NewReader(strings.NewReader(tc.reply)))
		assert.Equal(t, tc.want, ack("dangerous thing"), "reply %q", tc.reply)
	}
}
