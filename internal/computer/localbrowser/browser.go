// internal/computer/localbrowser/browser.go

// Package localbrowser drives a locally launched Chrome instance over CDP as
// a browser-environment computer backend.
package localbrowser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/computer"
	"github.com/xkilldash9x/cuakit/internal/config"
)

// Browser implements computer.BrowserComputer on top of chromedp. The
// browser process is owned by the Browser for the whole run; Close tears it
// down on every exit path, including error exits.
type Browser struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	width  int
	height int
	logger *zap.Logger
}

var _ computer.BrowserComputer = (*Browser)(nil)

// New launches the browser and blocks until it is ready for commands.
func New(parentCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	id := uuid.New().String()
	log := logger.Named("localbrowser").With(zap.String("browser_id", id))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parentCtx, opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelTask()
		cancelAlloc()
	}

	// An empty Run starts the browser process eagerly so a broken local
	// Chrome install fails here rather than on the first model action.
	if err := chromedp.Run(taskCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	log.Info("Browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	return &Browser{
		id:     id,
		ctx:    taskCtx,
		cancel: cancel,
		width:  cfg.Width,
		height: cfg.Height,
		logger: log,
	}, nil
}

// Close shuts down the browser process and releases its contexts. Safe to
// call after a failed run.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	if err != nil && !strings.Contains(err.Error(), "context canceled") {
		return fmt.Errorf("closing browser: %w", err)
	}
	b.logger.Info("Browser closed")
	return nil
}

func (b *Browser) Dimensions() (int, int) { return b.width, b.height }

func (b *Browser) Environment() schemas.Environment { return schemas.EnvBrowser }

// run executes chromedp actions on the browser's task context. Cancellation
// reaches the task context through the parent passed to New; the per-call ctx
// only short-circuits work that has not started yet.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(b.ctx, actions...)
}

// Screenshot captures the current viewport as base64-encoded PNG bytes.
func (b *Browser) Screenshot(ctx context.Context) (string, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// CurrentURL reports the page URL after the most recent action.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := b.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("reading current URL: %w", err)
	}
	return location, nil
}

// Navigate loads a URL, defaulting the scheme to https when absent.
func (b *Browser) Navigate(ctx context.Context, rawURL string) error {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	b.logger.Debug("Navigating", zap.String("url", rawURL))
	return b.run(ctx, chromedp.Navigate(rawURL))
}

func (b *Browser) Back(ctx context.Context) error {
	return b.run(ctx, chromedp.NavigateBack())
}

func (b *Browser) Forward(ctx context.Context) error {
	return b.run(ctx, chromedp.NavigateForward())
}

func (b *Browser) Click(ctx context.Context, x, y int, button string) error {
	return b.run(ctx, chromedp.MouseClickXY(float64(x), float64(y), chromedp.Button(button)))
}

func (b *Browser) DoubleClick(ctx context.Context, x, y int) error {
	return b.run(ctx, chromedp.MouseClickXY(float64(x), float64(y), chromedp.ClickCount(2)))
}

func (b *Browser) Move(ctx context.Context, x, y int) error {
	return b.run(ctx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(cdpCtx)
	}))
}

// Drag presses at the first point, moves through the remaining points, and
// releases at the last one.
func (b *Browser) Drag(ctx context.Context, path []schemas.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("drag path needs at least 2 points, got %d", len(path))
	}
	return b.run(ctx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		start := path[0]
		press := input.DispatchMouseEvent(input.MousePressed, float64(start.X), float64(start.Y)).
			WithButton(input.Left).WithClickCount(1)
		if err := press.Do(cdpCtx); err != nil {
			return err
		}
		for _, p := range path[1:] {
			move := input.DispatchMouseEvent(input.MouseMoved, float64(p.X), float64(p.Y)).
				WithButton(input.Left)
			if err := move.Do(cdpCtx); err != nil {
				return err
			}
		}
		end := path[len(path)-1]
		release := input.DispatchMouseEvent(input.MouseReleased, float64(end.X), float64(end.Y)).
			WithButton(input.Left).WithClickCount(1)
		return release.Do(cdpCtx)
	}))
}

func (b *Browser) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	return b.run(ctx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		wheel := input.DispatchMouseEvent(input.MouseWheel, float64(x), float64(y)).
			WithDeltaX(float64(scrollX)).WithDeltaY(float64(scrollY))
		return wheel.Do(cdpCtx)
	}))
}

func (b *Browser) Type(ctx context.Context, text string) error {
	return b.run(ctx, chromedp.KeyEvent(text))
}

// Keypress sends each named key to the focused element.
func (b *Browser) Keypress(ctx context.Context, keys []string) error {
	actions := make([]chromedp.Action, 0, len(keys))
	for _, key := range keys {
		actions = append(actions, chromedp.KeyEvent(mapKey(key)))
	}
	return b.run(ctx, actions...)
}

// Wait pauses briefly so slow page transitions settle before the screenshot.
func (b *Browser) Wait(ctx context.Context) error {
	select {
	case <-time.After(time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// keyNames maps the model's key vocabulary onto CDP key codes. Unknown names
// fall through as literal text, which covers single characters.
var keyNames = map[string]string{
	"ENTER":      kb.Enter,
	"RETURN":     kb.Enter,
	"TAB":        kb.Tab,
	"BACKSPACE":  kb.Backspace,
	"DELETE":     kb.Delete,
	"ESC":        kb.Escape,
	"ESCAPE":     kb.Escape,
	"SPACE":      " ",
	"ARROWUP":    kb.ArrowUp,
	"ARROWDOWN":  kb.ArrowDown,
	"ARROWLEFT":  kb.ArrowLeft,
	"ARROWRIGHT": kb.ArrowRight,
	"UP":         kb.ArrowUp,
	"DOWN":       kb.ArrowDown,
	"LEFT":       kb.ArrowLeft,
	"RIGHT":      kb.ArrowRight,
	"PAGEUP":     kb.PageUp,
	"PAGEDOWN":   kb.PageDown,
	"HOME":       kb.Home,
	"END":        kb.End,
}

func mapKey(key string) string {
	if mapped, ok := keyNames[strings.ToUpper(key)]; ok {
		return mapped
	}
	return key
}
