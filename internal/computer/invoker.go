// internal/computer/invoker.go
package computer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// HandlerFunc executes one action against a backend.
type HandlerFunc func(ctx context.Context, action schemas.Action) error

// Invoker maps the closed action-kind enumeration onto a backend's typed
// methods. The table is built and checked at construction so a hole in a
// backend's vocabulary fails at startup instead of mid-run.
type Invoker struct {
	computer Computer
	handlers map[schemas.ActionKind]HandlerFunc
	logger   *zap.Logger
}

// NewInvoker builds and validates the dispatch table for a backend. Browser
// environments must implement BrowserComputer; their navigation kinds are
// registered in addition to the base vocabulary.
func NewInvoker(c Computer, logger *zap.Logger) (*Invoker, error) {
	inv := &Invoker{
		computer: c,
		handlers: make(map[schemas.ActionKind]HandlerFunc),
		logger:   logger.Named("invoker"),
	}

	inv.handlers[schemas.ActionClick] = func(ctx context.Context, a schemas.Action) error {
		button := a.Button
		if button == "" {
			button = "left"
		}
		return c.Click(ctx, a.X, a.Y, button)
	}
	inv.handlers[schemas.ActionDoubleClick] = func(ctx context.Context, a schemas.Action) error {
		return c.DoubleClick(ctx, a.X, a.Y)
	}
	inv.handlers[schemas.ActionMove] = func(ctx context.Context, a schemas.Action) error {
		return c.Move(ctx, a.X, a.Y)
	}
	inv.handlers[schemas.ActionDrag] = func(ctx context.Context, a schemas.Action) error {
		return c.Drag(ctx, a.Path)
	}
	inv.handlers[schemas.ActionScroll] = func(ctx context.Context, a schemas.Action) error {
		return c.Scroll(ctx, a.X, a.Y, a.ScrollX, a.ScrollY)
	}
	inv.handlers[schemas.ActionType] = func(ctx context.Context, a schemas.Action) error {
		return c.Type(ctx, a.Text)
	}
	inv.handlers[schemas.ActionKeypress] = func(ctx context.Context, a schemas.Action) error {
		return c.Keypress(ctx, a.Keys)
	}
	inv.handlers[schemas.ActionWait] = func(ctx context.Context, a schemas.Action) error {
		return c.Wait(ctx)
	}
	inv.handlers[schemas.ActionScreenshot] = func(ctx context.Context, a schemas.Action) error {
		// The dispatcher captures a screenshot after every action; the
		// explicit screenshot action has no additional effect.
		return nil
	}

	if c.Environment() == schemas.EnvBrowser {
		browser, ok := c.(BrowserComputer)
		if !ok {
			return nil, fmt.Errorf("backend reports environment %q but does not implement BrowserComputer", c.Environment())
		}
		inv.handlers[schemas.ActionNavigate] = func(ctx context.Context, a schemas.Action) error {
			return browser.Navigate(ctx, a.URL)
		}
		inv.handlers[schemas.ActionBack] = func(ctx context.Context, a schemas.Action) error {
			return browser.Back(ctx)
		}
		inv.handlers[schemas.ActionForward] = func(ctx context.Context, a schemas.Action) error {
			return browser.Forward(ctx)
		}
	}

	if err := inv.validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// validate checks that every kind the backend's environment requires has a
// registered handler.
func (inv *Invoker) validate() error {
	required := schemas.BaseActionKinds
	if inv.computer.Environment() == schemas.EnvBrowser {
		required = append(append([]schemas.ActionKind{}, required...), schemas.BrowserActionKinds...)
	}
	for _, kind := range required {
		if inv.handlers[kind] == nil {
			return fmt.Errorf("no handler registered for action kind %q", kind)
		}
	}
	return nil
}

// Supports reports whether name resolves to a registered action kind. The
// function-call route uses this to decide whether a tool name belongs to the
// computer's method surface.
func (inv *Invoker) Supports(name string) bool {
	_, ok := inv.handlers[schemas.ActionKind(name)]
	return ok
}

// Invoke runs the handler for the action's kind. An unregistered kind yields
// an *UnsupportedActionError rather than a panic or a nil-map lookup surprise.
func (inv *Invoker) Invoke(ctx context.Context, action schemas.Action) error {
	handler, ok := inv.handlers[action.Type]
	if !ok {
		return &UnsupportedActionError{Kind: action.Type, Environment: inv.computer.Environment()}
	}
	inv.logger.Debug("Executing action", zap.String("kind", string(action.Type)))
	return handler(ctx, action)
}
