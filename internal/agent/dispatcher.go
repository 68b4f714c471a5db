// internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/memory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// handleItem performs at most one side effect for a model output item and
// returns the items to append. It never appends to history itself; that is
// RunTurn's job. The switch is exhaustive over the item union: output kinds
// and anything unrecognized produce no effect and no items.
func (a *Agent) handleItem(ctx context.Context, item schemas.Item) ([]schemas.Item, error) {
	switch it := item.(type) {
	case schemas.Message:
		if a.stepWriter != nil {
			fmt.Fprintln(a.stepWriter, it.Text())
		}
		return nil, nil
	case schemas.FunctionCall:
		return a.handleFunctionCall(ctx, it)
	case schemas.ComputerCall:
		return a.handleComputerCall(ctx, it)
	case schemas.FunctionCallOutput, schemas.ComputerCallOutput:
		return nil, nil
	default:
		return nil, nil
	}
}

// handleFunctionCall resolves a tool name against the memory providers first
// (first provider declaring the name wins), then against the computer's
// action surface. An unresolved name answers with a nil output: a model
// asking for an unknown tool gets a null result, not a crash.
func (a *Agent) handleFunctionCall(ctx context.Context, call schemas.FunctionCall) ([]schemas.Item, error) {
	var arguments map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
			return nil, &MalformedArgumentsError{Tool: call.Name, CallID: call.CallID, Err: err}
		}
	}
	if a.stepWriter != nil {
		fmt.Fprintf(a.stepWriter, "%s(%v)\n", call.Name, arguments)
	}

	var result any
	switch provider := a.findProvider(call.Name); {
	case provider != nil:
		value, err := provider.HandleCall(ctx, call.Name, arguments)
		if err != nil {
			return nil, err
		}
		result = value
	case a.invoker.Supports(call.Name):
		action, err := schemas.ActionFromArguments(call.Name, call.Arguments)
		if err != nil {
			return nil, &MalformedArgumentsError{Tool: call.Name, CallID: call.CallID, Err: err}
		}
		if err := a.invoker.Invoke(ctx, action); err != nil {
			return nil, err
		}
		// The backend call's own return value carries no information; a
		// completed call is reported as the fixed string "success".
		result = "success"
	default:
		a.logger.Warn("Function call for unknown tool", zap.String("tool", call.Name))
		result = nil
	}

	return []schemas.Item{
		schemas.FunctionCallOutput{CallID: call.CallID, Output: result},
	}, nil
}

// findProvider returns the first provider, in registration order, whose tool
// set contains name. Ordering is deterministic by construction.
func (a *Agent) findProvider(name string) memory.Provider {
	for _, p := range a.providers {
		for _, tool := range p.Tools() {
			if tool.Name == name {
				return p
			}
		}
	}
	return nil
}

// handleComputerCall executes one backend action, captures a screenshot,
// gates pending safety checks, and builds the output item. For browser
// environments the current page URL is vetted against the blocklist before
// it is attached.
func (a *Agent) handleComputerCall(ctx context.Context, call schemas.ComputerCall) ([]schemas.Item, error) {
	if a.stepWriter != nil {
		fmt.Fprintf(a.stepWriter, "%s(%s)\n", call.Action.Type, describeAction(call.Action))
	}

	if err := a.invoker.Invoke(ctx, call.Action); err != nil {
		return nil, err
	}

	// A fresh screenshot follows every action regardless of kind; it is the
	// model's only feedback channel.
	screenshot, err := a.computer.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing post-action screenshot: %w", err)
	}
	if a.onScreenshot != nil {
		a.onScreenshot(screenshot)
	}

	for _, check := range call.PendingSafetyChecks {
		if a.ack == nil || !a.ack(check.Message) {
			// Hard stop: no output item is emitted for this call.
			return nil, &SafetyCheckRejectedError{Check: check}
		}
	}

	output := schemas.ComputerCallOutput{
		CallID:                   call.CallID,
		AcknowledgedSafetyChecks: call.PendingSafetyChecks,
		Output: schemas.ComputerOutput{
			Type:     "input_image",
			ImageURL: "data:image/png;base64," + screenshot,
		},
	}

	if a.browser != nil {
		currentURL, err := a.browser.CurrentURL(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading current URL: %w", err)
		}
		if err := a.blocklist.Check(currentURL); err != nil {
			return nil, err
		}
		output.Output.CurrentURL = currentURL
	}

	return []schemas.Item{output}, nil
}

// describeAction renders the action's populated fields for step echoing.
func describeAction(action schemas.Action) string {
	switch action.Type {
	case schemas.ActionClick:
		return fmt.Sprintf("x=%d y=%d button=%s", action.X, action.Y, action.Button)
	case schemas.ActionDoubleClick, schemas.ActionMove:
		return fmt.Sprintf("x=%d y=%d", action.X, action.Y)
	case schemas.ActionScroll:
		return fmt.Sprintf("x=%d y=%d scroll_x=%d scroll_y=%d", action.X, action.Y, action.ScrollX, action.ScrollY)
	case schemas.ActionType:
		return fmt.Sprintf("text=%q", action.Text)
	case schemas.ActionKeypress:
		return fmt.Sprintf("keys=%v", action.Keys)
	case schemas.ActionNavigate:
		return fmt.Sprintf("url=%s", action.URL)
	case schemas.ActionDrag:
		return fmt.Sprintf("points=%d", len(action.Path))
	default:
		return ""
	}
}
