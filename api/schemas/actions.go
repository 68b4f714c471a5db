// api/schemas/actions.go
package schemas

import "fmt"

// Environment identifies the kind of automation target a backend drives.
type Environment string

const (
	EnvBrowser Environment = "browser"
	EnvWindows Environment = "windows"
	EnvUbuntu  Environment = "ubuntu"
	EnvMac     Environment = "mac"
)

// ActionKind enumerates every backend action the model may request. The set
// is closed: the dispatch table is built and validated against it at startup
// so an unsupported kind fails before the first model call, not mid-run.
type ActionKind string

const (
	ActionClick       ActionKind = "click"
	ActionDoubleClick ActionKind = "double_click"
	ActionMove        ActionKind = "move"
	ActionDrag        ActionKind = "drag"
	ActionScroll      ActionKind = "scroll"
	ActionType        ActionKind = "type"
	ActionKeypress    ActionKind = "keypress"
	ActionWait        ActionKind = "wait"
	ActionScreenshot  ActionKind = "screenshot"

	// Navigation kinds are only available on browser environments. They are
	// also reachable via the function-call route under the same names.
	ActionNavigate ActionKind = "goto"
	ActionBack     ActionKind = "back"
	ActionForward  ActionKind = "forward"
)

// BaseActionKinds are the kinds every backend must support regardless of
// environment.
var BaseActionKinds = []ActionKind{
	ActionClick, ActionDoubleClick, ActionMove, ActionDrag, ActionScroll,
	ActionType, ActionKeypress, ActionWait, ActionScreenshot,
}

// BrowserActionKinds are the additional kinds a browser backend must support.
var BrowserActionKinds = []ActionKind{ActionNavigate, ActionBack, ActionForward}

// Point is a screen coordinate used by drag paths.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Action is the tagged action variant carried by a ComputerCall. Only the
// fields relevant to the kind are set; the handler for the kind reads its own
// fields and ignores the rest.
type Action struct {
	Type    ActionKind `json:"type"`
	X       int        `json:"x,omitempty"`
	Y       int        `json:"y,omitempty"`
	Button  string     `json:"button,omitempty"`
	Path    []Point    `json:"path,omitempty"`
	ScrollX int        `json:"scroll_x,omitempty"`
	ScrollY int        `json:"scroll_y,omitempty"`
	Text    string     `json:"text,omitempty"`
	Keys    []string   `json:"keys,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// ActionFromArguments builds an Action for the function-call route: the tool
// name is the action kind and the JSON argument object supplies the fields.
func ActionFromArguments(name string, arguments string) (Action, error) {
	var action Action
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &action); err != nil {
			return Action{}, fmt.Errorf("parsing arguments for %q: %w", name, err)
		}
	}
	action.Type = ActionKind(name)
	return action, nil
}
