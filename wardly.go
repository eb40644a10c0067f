package wardly

import "encoding/json"

// Conversation turn roles. RoleFunction turns carry a tool result back to the
// model; their Name is the tool that produced it.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// FieldType is the semantic type of a tool parameter.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date" // string, normalized to YYYY-MM-DD
	FieldEnum    FieldType = "enum" // string restricted to Enum values
)

// FieldSpec describes one named, typed parameter of a tool.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Required    bool
	Enum        []string // for FieldEnum
	Description string
}

// Tool categories. CategoryCreate tools get their creation payload unwrapped
// from whatever nested shape the backend returns.
const (
	CategoryCreate = "create"
	CategoryQuery  = "query"
)

// ToolDescriptor is the static description of one backend operation.
// Descriptors are immutable once registered.
type ToolDescriptor struct {
	Name        string
	Description string
	Category    string
	Fields      []FieldSpec
}

// Required returns the names of the required fields, in declaration order.
func (d *ToolDescriptor) Required() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// FunctionSchema is the OpenAI-style function schema exported for a tool.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a single execution request with resolved parameters.
// Lower Priority executes earlier in ExecuteBatch; ties keep their original
// relative order.
type ToolCall struct {
	ID       string
	ToolName string
	Params   map[string]any
	Priority int
}

// ToolResult is the materialized outcome of one call. Failures are values
// here, never panics or aborts of sibling calls.
type ToolResult struct {
	CallID   string
	ToolName string
	Payload  any
	Err      error
}

// OK reports whether the call succeeded.
func (r ToolResult) OK() bool { return r.Err == nil }

// RequestedCall is a function call as produced by the model: the arguments
// are still a raw JSON document that has not been validated.
type RequestedCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is one conversation turn. Assistant turns that requested tool
// calls carry them in Calls; function turns carry the source tool in Name
// and the originating call in CallID.
type Message struct {
	Role    string
	Content string
	Calls   []RequestedCall
	Name    string
	CallID  string
}
