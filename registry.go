package wardly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Caller executes one backend operation. It is the boundary to the external
// tool endpoint; the transport behind it (HTTP POST per tool, JSON-RPC
// envelope, in-memory fake) is the caller's business.
type Caller interface {
	Call(ctx context.Context, tool string, params map[string]any) (any, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, tool string, params map[string]any) (any, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, tool string, params map[string]any) (any, error) {
	return f(ctx, tool, params)
}

// Registry holds the tool catalog and executes calls against a Caller with
// timeout, semaphore, and panic recovery. Descriptors are immutable once
// registered; registration normally happens once at startup.
type Registry struct {
	descriptors map[string]*ToolDescriptor
	validators  map[string]*jsonschema.Resolved
	caller      Caller // wrapped with middlewares
	rawCaller   Caller // unwrapped, so Use can re-apply from scratch
	sem         chan struct{}
	opts        registryOptions
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewRegistry creates a Registry that executes tools through caller.
func NewRegistry(caller Caller, opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        10 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		descriptors: make(map[string]*ToolDescriptor),
		validators:  make(map[string]*jsonschema.Resolved),
		caller:      caller,
		rawCaller:   caller,
		sem:         sem,
		opts:        o,
	}
}

// Register adds a descriptor, compiling its parameter schema for argument
// validation. A descriptor with an existing name replaces the old one.
func (r *Registry) Register(d *ToolDescriptor) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("descriptor must have a name")
	}
	resolved, err := compileRawSchema(buildParamsSchema(d))
	if err != nil {
		return fmt.Errorf("compile schema for %q: %w", d.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.Name] = d
	r.validators[d.Name] = resolved
	return nil
}

// MustRegister is Register that panics on error; catalog definitions are
// static, so a failure here is a programming bug.
func (r *Registry) MustRegister(ds ...*ToolDescriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic("wardly: " + err.Error())
		}
	}
}

// Descriptor returns the descriptor with the given name, or (nil, false).
func (r *Registry) Descriptor(name string) (*ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// Descriptors returns all registered descriptors, sorted by name for
// deterministic order.
func (r *Registry) Descriptors() []*ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*ToolDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Schemas exports every tool as an OpenAI-style function schema, sorted by
// name (e.g. for sending to a model endpoint).
func (r *Registry) Schemas() []FunctionSchema {
	ds := r.Descriptors()
	out := make([]FunctionSchema, 0, len(ds))
	for _, d := range ds {
		out = append(out, FunctionSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  buildParamsSchema(d),
		})
	}
	return out
}

// Execute runs one call and materializes the outcome as a ToolResult.
// Failures never escape as errors: unknown tool, invalid params, backend
// error, timeout, and panic all come back inside the result.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, ToolName: call.ToolName}

	r.mu.RLock()
	d, ok := r.descriptors[call.ToolName]
	validator := r.validators[call.ToolName]
	caller := r.caller
	r.mu.RUnlock()
	if !ok {
		res.Err = fmt.Errorf("%q: %w", call.ToolName, ErrToolNotFound)
		return res
	}

	v, err := normalizeParams(call.Params)
	if err != nil {
		res.Err = err
		return res
	}
	if err := validateAgainstSchema(validator, v); err != nil {
		res.Err = err
		return res
	}

	if err := r.acquireSemaphore(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		res.Err = err
		return res
	}
	defer r.releaseSemaphore()

	if r.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.timeout)
		defer cancel()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}
	start := time.Now()
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, res, time.Since(start))
		}
	}()

	payload, err := r.callRecovered(ctx, caller, call)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		res.Err = err
		return res
	}
	if d.Category == CategoryCreate {
		payload = unwrapCreated(payload)
	}
	res.Payload = payload
	return res
}

// callRecovered invokes the caller, converting a panic into SystemError when
// recovery is enabled.
func (r *Registry) callRecovered(ctx context.Context, caller Caller, call ToolCall) (payload any, err error) {
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				payload = nil
				err = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}
	return caller.Call(ctx, call.ToolName, call.Params)
}

// ExecuteBatch runs calls sequentially in ascending Priority order (stable:
// equal priorities keep their original relative order) and collects every
// result. A failing call does not stop the ones after it. Results come back
// in execution order.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	ordered := slices.Clone(calls)
	slices.SortStableFunc(ordered, func(a, b ToolCall) int {
		return a.Priority - b.Priority
	})
	out := make([]ToolResult, 0, len(ordered))
	for _, call := range ordered {
		out = append(out, r.Execute(ctx, call))
	}
	return out
}

// ExecuteParallel runs all calls concurrently (fan-out bounded by the
// registry semaphore) and waits for every one. Results keep the input order;
// each call's failure is isolated to its own slot.
func (r *Registry) ExecuteParallel(ctx context.Context, calls []ToolCall) []ToolResult {
	out := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			out[i] = r.Execute(ctx, call)
		})
	}
	wg.Wait()
	return out
}

// Use stores the given middlewares and reapplies them from scratch to the
// caller (onion order: first middleware is outermost). Calling Use again
// replaces the chain and rewraps from the raw caller, avoiding
// double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	c := r.rawCaller
	for i := len(middlewares) - 1; i >= 0; i-- {
		c = middlewares[i](c)
	}
	r.caller = c
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// normalizeParams roundtrips params through JSON so the validator sees the
// same value shapes a decoded argument payload would have (ints as numbers,
// nil as empty object).
func normalizeParams(params map[string]any) (any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &SystemError{Err: err}
	}
	return v, nil
}

// unwrapCreated extracts the created record from the shapes backends return
// for creation tools: the record itself, {result: {data: record}}, or
// {data: record}. Anything else passes through untouched.
func unwrapCreated(payload any) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	if rm, ok := m["result"].(map[string]any); ok {
		if d, ok := rm["data"]; ok {
			return d
		}
		return rm
	}
	if d, ok := m["data"]; ok {
		return d
	}
	return payload
}
