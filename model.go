package wardly

import "context"

// ModelReply is one model response, normalized: assistant text plus zero or
// more requested function calls. Providers that answer with a single
// function call and providers that answer with parallel calls both land in
// the Calls slice.
type ModelReply struct {
	Content string
	Calls   []RequestedCall
}

// ModelClient is the external model endpoint: it takes ordered conversation
// turns plus the callable tool schemas and answers with text or requested
// calls. Implementations must honor the context deadline.
type ModelClient interface {
	Chat(ctx context.Context, messages []Message, schemas []FunctionSchema) (*ModelReply, error)
}
