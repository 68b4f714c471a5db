// api/schemas/tools.go
package schemas

// Property describes a single named parameter of a tool.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ParameterSchema is the JSON-schema-shaped parameter set of a function tool.
// AdditionalProperties is always false: extra parameters are rejected.
type ParameterSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

// ToolDescriptor describes one callable tool offered to the model. Function
// tools carry a name and parameter schema; the synthesized computer tool
// instead carries display dimensions and the environment kind.
type ToolDescriptor struct {
	Type        string           `json:"type"` // "function" or "computer-preview"
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Parameters  *ParameterSchema `json:"parameters,omitempty"`

	DisplayWidth  int         `json:"display_width,omitempty"`
	DisplayHeight int         `json:"display_height,omitempty"`
	Environment   Environment `json:"environment,omitempty"`
}

// ComputerTool synthesizes the computer tool descriptor from a backend's
// display dimensions and environment kind.
func ComputerTool(width, height int, env Environment) ToolDescriptor {
	return ToolDescriptor{
		Type:          "computer-preview",
		DisplayWidth:  width,
		DisplayHeight: height,
		Environment:   env,
	}
}

// FunctionTool builds a function tool descriptor with a closed parameter set.
func FunctionTool(name, description string, properties map[string]Property, required []string) ToolDescriptor {
	if properties == nil {
		properties = map[string]Property{}
	}
	if required == nil {
		required = []string{}
	}
	return ToolDescriptor{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters: &ParameterSchema{
			Type:                 "object",
			Properties:           properties,
			Required:             required,
			AdditionalProperties: false,
		},
	}
}
