package wardly

import (
	"context"
	"log/slog"
	"time"
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ToolResult, time.Duration)
}

// WithDefaultTimeout sets the default per-call execution timeout.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent call executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeExecute sets a hook called before each call execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each call execution with its
// materialized result and duration.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ToolResult, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorOptions)

type orchestratorOptions struct {
	systemPrompt  string
	maxIterations int
	maxHistory    int
	logger        *slog.Logger
	pick          func(n int) int
}

// WithSystemPrompt sets the system turn that anchors the session history.
func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.systemPrompt = prompt
	}
}

// WithMaxIterations caps the number of model rounds per user turn. Reaching
// the cap finishes the turn with the last model content, never an error.
func WithMaxIterations(n int) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.maxIterations = n
	}
}

// WithMaxHistory caps the session history length. After pruning, the first
// turn is always the original system turn.
func WithMaxHistory(n int) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.maxHistory = n
	}
}

// WithOrchestratorLogger sets the structured logger for round/call events.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.logger = logger
	}
}

// withPick overrides the random index choice used for the similar-question
// framing sentence; tests use it for determinism.
func withPick(fn func(n int) int) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.pick = fn
	}
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*extractorOptions)

type extractorOptions struct {
	resolver *Resolver
	now      func() time.Time
	logger   *slog.Logger
}

// WithResolver wires a foreign-key resolver so fields like department_id can
// be filled from a human-typed name.
func WithResolver(r *Resolver) ExtractorOption {
	return func(o *extractorOptions) {
		o.resolver = r
	}
}

// WithClock overrides the clock used to synthesize generated identifiers.
func WithClock(now func() time.Time) ExtractorOption {
	return func(o *extractorOptions) {
		o.now = now
	}
}

// WithExtractorLogger sets the structured logger for extraction/resolution events.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(o *extractorOptions) {
		o.logger = logger
	}
}
