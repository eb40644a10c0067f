package wardly

import (
	"errors"
	"fmt"
)

// Sentinel errors for wardly. Use errors.Is to check.
var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrTimeout       = errors.New("tool execution timeout")
	ErrValidation    = errors.New("validation failed")
	ErrModelEndpoint = errors.New("model endpoint failure")
	ErrUnknownEntity = errors.New("unknown entity type")
)

// ClientError is an error whose message is safe to surface to the model or
// the end user for self-correction (invalid JSON arguments, schema
// validation failure, an unresolvable entity name). Do not put stack traces
// or internal details in Reason.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains.
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (backend down, panic, etc.).
// The model never sees the underlying message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures so
// parse errors read the same whether they come from the registry or from a
// model-produced argument payload.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}

// panicError wraps a recovered panic value for SystemError; used by Registry
// and the WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
