// api/schemas/model.go
package schemas

// ModelRequest is the wire form of one model call: the full conversation
// context, the fixed tool set, and the truncation policy.
type ModelRequest struct {
	Model      string           `json:"model"`
	Input      ItemList         `json:"input"`
	Tools      []ToolDescriptor `json:"tools,omitempty"`
	Truncation string           `json:"truncation,omitempty"`
}

// ModelError is the structured error object a failed model call may carry in
// place of output.
type ModelError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ModelResponse is the model's reply. A response without output items is an
// error path for the caller: the loop must surface it rather than continue
// with nothing new.
type ModelResponse struct {
	ID     string      `json:"id,omitempty"`
	Status string      `json:"status,omitempty"`
	Output ItemList    `json:"output,omitempty"`
	Error  *ModelError `json:"error,omitempty"`
}
