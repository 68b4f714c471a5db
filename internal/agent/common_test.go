package agent

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/memory"
)

// scriptedModel returns canned responses in order and records every input it
// was called with.
type scriptedModel struct {
	responses []*schemas.ModelResponse
	err       error
	calls     [][]schemas.Item
	toolSets  [][]schemas.ToolDescriptor
}

func (m *scriptedModel) CreateResponse(ctx context.Context, input []schemas.Item, tools []schemas.ToolDescriptor) (*schemas.ModelResponse, error) {
	snapshot := append([]schemas.Item(nil), input...)
	m.calls = append(m.calls, snapshot)
	m.toolSets = append(m.toolSets, tools)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &schemas.ModelResponse{}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// fakeBrowser implements computer.BrowserComputer, recording every action.
type fakeBrowser struct {
	currentURL    string
	screenshot    string
	screenshotErr error
	log           []string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		currentURL: "https://example.com/",
		screenshot: "ZmFrZS1wbmc=",
	}
}

func (f *fakeBrowser) Dimensions() (int, int)           { return 1024, 768 }
func (f *fakeBrowser) Environment() schemas.Environment { return schemas.EnvBrowser }

func (f *fakeBrowser) Screenshot(ctx context.Context) (string, error) {
	f.log = append(f.log, "screenshot")
	return f.screenshot, f.screenshotErr
}

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	return f.currentURL, nil
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.log = append(f.log, "goto:"+url)
	return nil
}

func (f *fakeBrowser) Back(ctx context.Context) error {
	f.log = append(f.log, "back")
	return nil
}

func (f *fakeBrowser) Forward(ctx context.Context) error {
	f.log = append(f.log, "forward")
	return nil
}

func (f *fakeBrowser) Click(ctx context.Context, x, y int, button string) error {
	f.log = append(f.log, fmt.Sprintf("click:%d,%d,%s", x, y, button))
	return nil
}

func (f *fakeBrowser) DoubleClick(ctx context.Context, x, y int) error {
	f.log = append(f.log, fmt.Sprintf("double_click:%d,%d", x, y))
	return nil
}

func (f *fakeBrowser) Move(ctx context.Context, x, y int) error {
	f.log = append(f.log, fmt.Sprintf("move:%d,%d", x, y))
	return nil
}

func (f *fakeBrowser) Drag(ctx context.Context, path []schemas.Point) error {
	f.log = append(f.log, fmt.Sprintf("drag:%d", len(path)))
	return nil
}

func (f *fakeBrowser) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	f.log = append(f.log, fmt.Sprintf("scroll:%d,%d,%d,%d", x, y, scrollX, scrollY))
	return nil
}

func (f *fakeBrowser) Type(ctx context.Context, text string) error {
	f.log = append(f.log, "type:"+text)
	return nil
}

func (f *fakeBrowser) Keypress(ctx context.Context, keys []string) error {
	f.log = append(f.log, fmt.Sprintf("keypress:%v", keys))
	return nil
}

func (f *fakeBrowser) Wait(ctx context.Context) error {
	f.log = append(f.log, "wait")
	return nil
}

// fakeDesktop is a minimal non-browser backend: the base vocabulary only.
type fakeDesktop struct {
	fakeBrowser
}

func (f *fakeDesktop) Environment() schemas.Environment { return schemas.EnvUbuntu }

// scriptedProvider is a memory provider with canned tool names and results.
type scriptedProvider struct {
	name     string
	tools    []schemas.ToolDescriptor
	fetch    string
	fetchErr error
	calls    []string
}

func newScriptedProvider(name, content string) *scriptedProvider {
	return &scriptedProvider{
		name: name,
		tools: []schemas.ToolDescriptor{
			schemas.FunctionTool(memory.ToolFetchMemory, "fetch", nil, nil),
			schemas.FunctionTool(memory.ToolWriteMemory, "write",
				map[string]schemas.Property{"content": {Type: "string"}}, []string{"content"}),
		},
		fetch: content,
	}
}

func (p *scriptedProvider) Tools() []schemas.ToolDescriptor { return p.tools }

func (p *scriptedProvider) HandleCall(ctx context.Context, name string, arguments map[string]any) (any, error) {
	p.calls = append(p.calls, name)
	switch name {
	case memory.ToolFetchMemory:
		if p.fetchErr != nil {
			return nil, p.fetchErr
		}
		return p.fetch, nil
	case memory.ToolWriteMemory:
		content, _ := arguments["content"].(string)
		return content, nil
	default:
		return nil, &memory.UnsupportedOperationError{Tool: name}
	}
}
