// internal/computer/dockerdesktop/desktop.go

// Package dockerdesktop drives an X11 desktop inside a running container as
// a desktop-environment computer backend. Actions are executed with xdotool
// and screenshots captured with ImageMagick's import, both via docker exec.
package dockerdesktop

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/computer"
	"github.com/xkilldash9x/cuakit/internal/config"
)

// Desktop implements computer.Computer against a container exposing an X11
// display. The container itself is an external collaborator: it must already
// be running with xdotool and import available.
type Desktop struct {
	container string
	display   string
	width     int
	height    int
	logger    *zap.Logger
}

var _ computer.Computer = (*Desktop)(nil)

// New verifies the container is reachable before returning the backend.
func New(ctx context.Context, cfg config.DockerConfig, logger *zap.Logger) (*Desktop, error) {
	d := &Desktop{
		container: cfg.Container,
		display:   cfg.Display,
		width:     cfg.Width,
		height:    cfg.Height,
		logger:    logger.Named("dockerdesktop").With(zap.String("container", cfg.Container)),
	}
	if _, err := d.exec(ctx, "true"); err != nil {
		return nil, fmt.Errorf("container %q is not reachable: %w", cfg.Container, err)
	}
	d.logger.Info("Desktop container attached", zap.String("display", cfg.Display))
	return d, nil
}

func (d *Desktop) Dimensions() (int, int) { return d.width, d.height }

func (d *Desktop) Environment() schemas.Environment { return schemas.EnvUbuntu }

// exec runs a shell command inside the container and returns its stdout.
func (d *Desktop) exec(ctx context.Context, command string) ([]byte, error) {
	wrapped := fmt.Sprintf("export DISPLAY=%s && %s", d.display, command)
	cmd := exec.CommandContext(ctx, "docker", "exec", d.container, "sh", "-c", wrapped)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker exec %q: %w (stderr: %s)", command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// xdotool runs an xdotool subcommand inside the container.
func (d *Desktop) xdotool(ctx context.Context, args ...string) error {
	_, err := d.exec(ctx, "xdotool "+strings.Join(args, " "))
	return err
}

// Screenshot captures the root window as base64-encoded PNG bytes.
func (d *Desktop) Screenshot(ctx context.Context) (string, error) {
	out, err := d.exec(ctx, "import -window root png:- | base64 -w 0")
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// buttonNumbers maps action button names onto X11 button numbers.
var buttonNumbers = map[string]string{
	"left":   "1",
	"middle": "2",
	"right":  "3",
}

func (d *Desktop) Click(ctx context.Context, x, y int, button string) error {
	number, ok := buttonNumbers[button]
	if !ok {
		number = "1"
	}
	return d.xdotool(ctx, "mousemove", itoa(x), itoa(y), "click", number)
}

func (d *Desktop) DoubleClick(ctx context.Context, x, y int) error {
	return d.xdotool(ctx, "mousemove", itoa(x), itoa(y), "click", "--repeat", "2", "--delay", "100", "1")
}

func (d *Desktop) Move(ctx context.Context, x, y int) error {
	return d.xdotool(ctx, "mousemove", itoa(x), itoa(y))
}

func (d *Desktop) Drag(ctx context.Context, path []schemas.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("drag path needs at least 2 points, got %d", len(path))
	}
	start := path[0]
	if err := d.xdotool(ctx, "mousemove", itoa(start.X), itoa(start.Y), "mousedown", "1"); err != nil {
		return err
	}
	for _, p := range path[1:] {
		if err := d.xdotool(ctx, "mousemove", itoa(p.X), itoa(p.Y)); err != nil {
			return err
		}
	}
	return d.xdotool(ctx, "mouseup", "1")
}

// Scroll positions the pointer and emits wheel button events; X11 maps wheel
// up/down to buttons 4/5 and left/right to 6/7.
func (d *Desktop) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	if err := d.xdotool(ctx, "mousemove", itoa(x), itoa(y)); err != nil {
		return err
	}
	if scrollY != 0 {
		button := "5"
		if scrollY < 0 {
			button = "4"
		}
		clicks := abs(scrollY) / 50
		if clicks < 1 {
			clicks = 1
		}
		if err := d.xdotool(ctx, "click", "--repeat", itoa(clicks), button); err != nil {
			return err
		}
	}
	if scrollX != 0 {
		button := "7"
		if scrollX < 0 {
			button = "6"
		}
		clicks := abs(scrollX) / 50
		if clicks < 1 {
			clicks = 1
		}
		if err := d.xdotool(ctx, "click", "--repeat", itoa(clicks), button); err != nil {
			return err
		}
	}
	return nil
}

func (d *Desktop) Type(ctx context.Context, text string) error {
	return d.xdotool(ctx, "type", "--delay", "50", shellQuote(text))
}

// keysymNames maps the model's key vocabulary onto X11 keysyms.
var keysymNames = map[string]string{
	"ENTER":      "Return",
	"RETURN":     "Return",
	"TAB":        "Tab",
	"BACKSPACE":  "BackSpace",
	"DELETE":     "Delete",
	"ESC":        "Escape",
	"ESCAPE":     "Escape",
	"SPACE":      "space",
	"CTRL":       "ctrl",
	"ALT":        "alt",
	"SHIFT":      "shift",
	"SUPER":      "super",
	"ARROWUP":    "Up",
	"ARROWDOWN":  "Down",
	"ARROWLEFT":  "Left",
	"ARROWRIGHT": "Right",
	"UP":         "Up",
	"DOWN":       "Down",
	"LEFT":       "Left",
	"RIGHT":      "Right",
	"PAGEUP":     "Page_Up",
	"PAGEDOWN":   "Page_Down",
	"HOME":       "Home",
	"END":        "End",
}

// Keypress sends the keys as one chord, so ["CTRL","c"] becomes ctrl+c.
func (d *Desktop) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	mapped := make([]string, 0, len(keys))
	for _, key := range keys {
		if keysym, ok := keysymNames[strings.ToUpper(key)]; ok {
			mapped = append(mapped, keysym)
		} else {
			mapped = append(mapped, key)
		}
	}
	return d.xdotool(ctx, "key", strings.Join(mapped, "+"))
}

func (d *Desktop) Wait(ctx context.Context) error {
	_, err := d.exec(ctx, "sleep 1")
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// shellQuote single-quotes a string for the sh -c command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
