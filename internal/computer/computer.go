// internal/computer/computer.go

// Package computer defines the contract between the turn loop and an
// automation backend, plus the validated dispatch table that maps the closed
// action vocabulary onto a backend's typed methods.
package computer

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// Computer is the fixed action vocabulary every backend exposes. Methods
// return no meaningful value; success is implied by a nil error. Screenshot
// returns base64-encoded PNG bytes.
type Computer interface {
	Dimensions() (width, height int)
	Environment() schemas.Environment

	Screenshot(ctx context.Context) (string, error)
	Click(ctx context.Context, x, y int, button string) error
	DoubleClick(ctx context.Context, x, y int) error
	Move(ctx context.Context, x, y int) error
	Drag(ctx context.Context, path []schemas.Point) error
	Scroll(ctx context.Context, x, y, scrollX, scrollY int) error
	Type(ctx context.Context, text string) error
	Keypress(ctx context.Context, keys []string) error
	Wait(ctx context.Context) error
}

// BrowserComputer extends Computer with the navigation surface only browser
// environments have.
type BrowserComputer interface {
	Computer
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
}

// UnsupportedActionError reports an action kind outside the backend's
// registered vocabulary.
type UnsupportedActionError struct {
	Kind        schemas.ActionKind
	Environment schemas.Environment
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("action %q is not supported by %s backends", e.Kind, e.Environment)
}
