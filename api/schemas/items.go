// api/schemas/items.go
package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

// ItemKind is the discriminator for the conversation item union. The set is
// closed; the dispatcher switches exhaustively over it.
type ItemKind string

const (
	KindMessage            ItemKind = "message"
	KindFunctionCall       ItemKind = "function_call"
	KindFunctionCallOutput ItemKind = "function_call_output"
	KindComputerCall       ItemKind = "computer_call"
	KindComputerCallOutput ItemKind = "computer_call_output"
)

// Item is one entry in a conversation history. Concrete types are Message,
// FunctionCall, FunctionCallOutput, ComputerCall and ComputerCallOutput.
// Histories are append-only; an Item is never mutated once appended.
type Item interface {
	Kind() ItemKind
}

// ContentPart is a single text segment inside a message.
type ContentPart struct {
	Type string `json:"type"` // "input_text" or "output_text"
	Text string `json:"text"`
}

// Message is a plain conversation message from the user, the system, or the
// model. An assistant message terminates a turn.
type Message struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

func (Message) Kind() ItemKind { return KindMessage }

// Text returns the concatenated text of all content parts.
func (m Message) Text() string {
	switch len(m.Content) {
	case 0:
		return ""
	case 1:
		return m.Content[0].Text
	}
	var s string
	for _, part := range m.Content {
		s += part.Text
	}
	return s
}

// UserMessage builds a user-role message from a plain string.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentPart{{Type: "input_text", Text: text}}}
}

// SystemMessage builds a system-role message from a plain string.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentPart{{Type: "input_text", Text: text}}}
}

// FunctionCall is a model request to invoke a named tool. Arguments is the
// raw JSON argument object exactly as the model produced it; it is parsed at
// dispatch time so a malformed payload surfaces as a dispatch error rather
// than a decode error.
type FunctionCall struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (FunctionCall) Kind() ItemKind { return KindFunctionCall }

// FunctionCallOutput answers a FunctionCall with the same call identifier.
// Output may be a string, structured data, or nil for an unresolved tool.
type FunctionCallOutput struct {
	CallID string `json:"call_id"`
	Output any    `json:"output"`
}

func (FunctionCallOutput) Kind() ItemKind { return KindFunctionCallOutput }

// SafetyCheck is a model-flagged condition that requires explicit human
// acknowledgment before the action's result is accepted.
type SafetyCheck struct {
	ID      string `json:"id"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ComputerCall is a model request to perform one backend action.
type ComputerCall struct {
	CallID              string        `json:"call_id"`
	Action              Action        `json:"action"`
	PendingSafetyChecks []SafetyCheck `json:"pending_safety_checks,omitempty"`
}

func (ComputerCall) Kind() ItemKind { return KindComputerCall }

// ComputerOutput is the payload of a ComputerCallOutput: a fresh screenshot
// as an inline image reference and, for browser environments, the page URL
// after the action.
type ComputerOutput struct {
	Type       string `json:"type"` // always "input_image"
	ImageURL   string `json:"image_url"`
	CurrentURL string `json:"current_url,omitempty"`
}

// ComputerCallOutput answers a ComputerCall with the same call identifier.
// AcknowledgedSafetyChecks always carries the full list of checks that were
// presented, even when that list is empty.
type ComputerCallOutput struct {
	CallID                   string         `json:"call_id"`
	AcknowledgedSafetyChecks []SafetyCheck  `json:"acknowledged_safety_checks"`
	Output                   ComputerOutput `json:"output"`
}

func (ComputerCallOutput) Kind() ItemKind { return KindComputerCallOutput }

// itemEnvelope is the wire shape shared by all item kinds. Only the fields
// relevant to the tagged kind are populated.
type itemEnvelope struct {
	Type                     ItemKind            `json:"type"`
	Role                     Role                `json:"role,omitempty"`
	Content                  []ContentPart       `json:"content,omitempty"`
	Name                     string              `json:"name,omitempty"`
	Arguments                string              `json:"arguments,omitempty"`
	CallID                   string              `json:"call_id,omitempty"`
	Output                   jsoniter.RawMessage `json:"output,omitempty"`
	Action                   *Action             `json:"action,omitempty"`
	PendingSafetyChecks      []SafetyCheck       `json:"pending_safety_checks,omitempty"`
	AcknowledgedSafetyChecks *[]SafetyCheck      `json:"acknowledged_safety_checks,omitempty"`
}

// MarshalItem encodes a single conversation item into its tagged wire form.
func MarshalItem(item Item) ([]byte, error) {
	env := itemEnvelope{Type: item.Kind()}
	switch it := item.(type) {
	case Message:
		env.Role = it.Role
		env.Content = it.Content
	case FunctionCall:
		env.CallID = it.CallID
		env.Name = it.Name
		env.Arguments = it.Arguments
	case FunctionCallOutput:
		env.CallID = it.CallID
		raw, err := json.Marshal(it.Output)
		if err != nil {
			return nil, fmt.Errorf("encoding function_call_output payload: %w", err)
		}
		env.Output = raw
	case ComputerCall:
		env.CallID = it.CallID
		action := it.Action
		env.Action = &action
		env.PendingSafetyChecks = it.PendingSafetyChecks
	case ComputerCallOutput:
		env.CallID = it.CallID
		// The acknowledged list is part of the contract even when empty, so
		// it must not be dropped by omitempty.
		if it.AcknowledgedSafetyChecks == nil {
			env.AcknowledgedSafetyChecks = &[]SafetyCheck{}
		} else {
			env.AcknowledgedSafetyChecks = &it.AcknowledgedSafetyChecks
		}
		raw, err := json.Marshal(it.Output)
		if err != nil {
			return nil, fmt.Errorf("encoding computer_call_output payload: %w", err)
		}
		env.Output = raw
	default:
		return nil, fmt.Errorf("unknown item kind %q", item.Kind())
	}
	return json.Marshal(env)
}

// UnmarshalItem decodes one tagged wire item into its concrete type.
func UnmarshalItem(data []byte) (Item, error) {
	var env itemEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding item envelope: %w", err)
	}
	// Some producers omit the tag on plain messages; a role implies one.
	if env.Type == "" && env.Role != "" {
		env.Type = KindMessage
	}
	switch env.Type {
	case KindMessage:
		return Message{Role: env.Role, Content: env.Content}, nil
	case KindFunctionCall:
		return FunctionCall{CallID: env.CallID, Name: env.Name, Arguments: env.Arguments}, nil
	case KindFunctionCallOutput:
		var out any
		if len(env.Output) > 0 {
			if err := json.Unmarshal(env.Output, &out); err != nil {
				return nil, fmt.Errorf("decoding function_call_output payload: %w", err)
			}
		}
		return FunctionCallOutput{CallID: env.CallID, Output: out}, nil
	case KindComputerCall:
		if env.Action == nil {
			return nil, fmt.Errorf("computer_call %q has no action", env.CallID)
		}
		return ComputerCall{CallID: env.CallID, Action: *env.Action, PendingSafetyChecks: env.PendingSafetyChecks}, nil
	case KindComputerCallOutput:
		var out ComputerOutput
		if len(env.Output) > 0 {
			if err := json.Unmarshal(env.Output, &out); err != nil {
				return nil, fmt.Errorf("decoding computer_call_output payload: %w", err)
			}
		}
		var acked []SafetyCheck
		if env.AcknowledgedSafetyChecks != nil {
			acked = *env.AcknowledgedSafetyChecks
		}
		return ComputerCallOutput{CallID: env.CallID, AcknowledgedSafetyChecks: acked, Output: out}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", env.Type)
	}
}

// ItemList marshals and unmarshals a conversation slice as a JSON array of
// tagged items.
type ItemList []Item

func (l ItemList) MarshalJSON() ([]byte, error) {
	parts := make([]jsoniter.RawMessage, 0, len(l))
	for _, item := range l {
		raw, err := MarshalItem(item)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raw)
	}
	return json.Marshal(parts)
}

func (l *ItemList) UnmarshalJSON(data []byte) error {
	var parts []jsoniter.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	items := make([]Item, 0, len(parts))
	for _, raw := range parts {
		item, err := UnmarshalItem(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	*l = items
	return nil
}
