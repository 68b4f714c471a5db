// internal/agent/agent.go

// Package agent implements the turn-execution loop: it interleaves model
// calls, side-effecting backend actions, safety-check gating and memory
// injection into one synchronous control flow that terminates when the model
// produces a plain assistant message.
package agent

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/computer"
	"github.com/xkilldash9x/cuakit/internal/memory"
)

// ModelCaller is the loop's view of the model endpoint: one opaque
// synchronous request/response operation.
type ModelCaller interface {
	CreateResponse(ctx context.Context, input []schemas.Item, tools []schemas.ToolDescriptor) (*schemas.ModelResponse, error)
}

// AcknowledgeFunc decides whether a pending safety check may proceed. It is
// typically an interactive operator prompt.
type AcknowledgeFunc func(message string) bool

// ScreenshotFunc observes every screenshot the dispatcher captures, as a
// base64-encoded PNG. Used by the image-display flag.
type ScreenshotFunc func(imageB64 string)

// Options carries the optional collaborators and flags of an Agent.
type Options struct {
	// AcknowledgeSafetyCheck gates pending safety checks. When nil, every
	// check is rejected: unattended runs must not acknowledge implicitly.
	AcknowledgeSafetyCheck AcknowledgeFunc
	// StepWriter receives the text of model messages and a line per tool
	// call as the turn progresses. Nil disables step echoing.
	StepWriter io.Writer
	// OnScreenshot, when set, observes captured screenshots.
	OnScreenshot ScreenshotFunc
	// Blocklist lists disallowed page domains for browser environments.
	Blocklist []string
	// Debug enables verbose context logging around each model call.
	Debug bool
	Logger *zap.Logger
}

// Agent owns one conversation-driving loop over a computer backend. The
// fixed tool set (provider tools plus the synthesized computer tool) is
// assembled at construction and never changes for the agent's lifetime.
type Agent struct {
	model     ModelCaller
	computer  computer.Computer
	browser   computer.BrowserComputer // non-nil iff environment is browser
	invoker   *computer.Invoker
	providers []memory.Provider
	tools     []schemas.ToolDescriptor
	blocklist *Blocklist

	ack          AcknowledgeFunc
	stepWriter   io.Writer
	onScreenshot ScreenshotFunc
	debug        bool
	logger       *zap.Logger
}

// New assembles an agent over a model endpoint, a computer backend and an
// ordered list of memory providers. Provider order is significant: the first
// provider declaring a tool name wins at dispatch time.
func New(model ModelCaller, comp computer.Computer, providers []memory.Provider, opts Options) (*Agent, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("agent")

	invoker, err := computer.NewInvoker(comp, logger)
	if err != nil {
		return nil, err
	}

	width, height := comp.Dimensions()
	tools := []schemas.ToolDescriptor{
		schemas.ComputerTool(width, height, comp.Environment()),
	}
	for _, p := range providers {
		tools = append(tools, p.Tools()...)
	}

	a := &Agent{
		model:        model,
		computer:     comp,
		invoker:      invoker,
		providers:    providers,
		tools:        tools,
		blocklist:    NewBlocklist(opts.Blocklist),
		ack:          opts.AcknowledgeSafetyCheck,
		stepWriter:   opts.StepWriter,
		onScreenshot: opts.OnScreenshot,
		debug:        opts.Debug,
		logger:       logger,
	}
	if comp.Environment() == schemas.EnvBrowser {
		// NewInvoker already rejected browser backends without the
		// navigation surface, so this assertion cannot fail here.
		a.browser = comp.(computer.BrowserComputer)
	}
	return a, nil
}

// Tools exposes the agent's fixed tool set, mostly for tests and debugging.
func (a *Agent) Tools() []schemas.ToolDescriptor { return a.tools }

// RunTurn drives one complete turn: from the caller-supplied input items
// (typically the prior history plus one new user message) to a terminal
// assistant message. It returns every item generated along the way so the
// caller can persist full history. The loop holds no state between turns
// beyond what memory providers persist externally.
func (a *Agent) RunTurn(ctx context.Context, input []schemas.Item) ([]schemas.Item, error) {
	turnID := uuid.New().String()
	log := a.logger.With(zap.String("turn_id", turnID))
	log.Debug("Turn started", zap.Int("input_items", len(input)))

	base := a.memoryItems(ctx, log)
	base = append(base, input...)

	var generated []schemas.Item
	for !endsWithAssistantMessage(generated) {
		convo := make([]schemas.Item, 0, len(base)+len(generated))
		convo = append(convo, base...)
		convo = append(convo, generated...)

		resp, err := a.model.CreateResponse(ctx, convo, a.tools)
		if err != nil {
			return generated, err
		}
		if len(resp.Output) == 0 {
			// Looping on an empty response would never terminate; surface
			// it instead, with the raw status when debug logging is on.
			if a.debug {
				log.Error("Model returned no output",
					zap.String("response_id", resp.ID),
					zap.String("status", resp.Status),
				)
			}
			return generated, &NoModelOutputError{ResponseID: resp.ID}
		}

		generated = append(generated, resp.Output...)
		for _, item := range resp.Output {
			results, err := a.handleItem(ctx, item)
			if err != nil {
				return generated, err
			}
			generated = append(generated, results...)
		}
	}

	log.Debug("Turn finished", zap.Int("generated_items", len(generated)))
	return generated, nil
}

// memoryItems fetches each provider's memory and wraps non-empty content in
// a system message. Injection is best-effort: a failing provider is logged
// and skipped, never allowed to abort the turn.
func (a *Agent) memoryItems(ctx context.Context, log *zap.Logger) []schemas.Item {
	var items []schemas.Item
	for _, p := range a.providers {
		result, err := p.HandleCall(ctx, memory.ToolFetchMemory, nil)
		if err != nil {
			log.Warn("Memory fetch failed; continuing without it", zap.Error(err))
			continue
		}
		content, ok := result.(string)
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		items = append(items, schemas.SystemMessage("Memory:\n"+content))
	}
	return items
}

func endsWithAssistantMessage(items []schemas.Item) bool {
	if len(items) == 0 {
		return false
	}
	msg, ok := items[len(items)-1].(schemas.Message)
	return ok && msg.Role == schemas.RoleAssistant
}
