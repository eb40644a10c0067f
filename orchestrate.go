package wardly

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMaxIterations = 5
	defaultMaxHistory    = 20
	defaultSystemPrompt  = "You are an operations assistant for a records system. " +
		"Answer using the available tools; call a tool instead of guessing data. " +
		"Reply with plain, concise text."
)

// framingPhrases preface the answer when the user's question looks like a
// recent one. The turn still executes normally.
var framingPhrases = []string{
	"This looks similar to something you asked recently. ",
	"You asked about this a moment ago, here it is again. ",
	"Same question as before, so here is the current state. ",
}

// Report is the outcome of one user turn: the final assistant text, every
// tool result executed across all rounds, and timing metadata.
type Report struct {
	Content    string
	Results    []ToolResult
	Iterations int
	Similar    bool
	Elapsed    time.Duration
}

// Orchestrator drives the model/tool loop for one session: it sends the
// pruned history plus the registry's schemas to the model, executes any
// requested calls concurrently, feeds the results back, and repeats until
// the model stops requesting calls or the round cap is hit. One instance
// per session; instances are not shared across sessions.
type Orchestrator struct {
	model    ModelClient
	registry *Registry
	session  *Session
	opts     orchestratorOptions
}

// NewOrchestrator creates a session-owning orchestrator.
func NewOrchestrator(model ModelClient, registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	o := orchestratorOptions{
		systemPrompt:  defaultSystemPrompt,
		maxIterations: defaultMaxIterations,
		maxHistory:    defaultMaxHistory,
		pick:          rand.IntN,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxIterations < 1 {
		o.maxIterations = defaultMaxIterations
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		model:    model,
		registry: registry,
		session:  NewSession(o.systemPrompt, o.maxHistory),
		opts:     o,
	}
}

// Session exposes the underlying session (e.g. for history inspection).
func (o *Orchestrator) Session() *Session { return o.session }

// Reset clears the conversation history and the question log.
func (o *Orchestrator) Reset() { o.session.Reset() }

// Ask processes one user turn. The returned error is non-nil only when the
// model endpoint itself fails; every per-call failure is materialized inside
// Report.Results. Hitting the round cap finishes with the last model
// content, never an error.
func (o *Orchestrator) Ask(ctx context.Context, text string) (*Report, error) {
	start := time.Now()
	similar := o.session.SeenSimilar(text)
	o.session.LogQuestion(text)
	o.session.Append(Message{Role: RoleUser, Content: text})

	var all []ToolResult
	var content string
	rounds := 0
	for {
		rounds++
		reply, err := o.model.Chat(ctx, o.session.History(), o.registry.Schemas())
		if err != nil {
			return nil, fmt.Errorf("orchestration aborted: %w", err)
		}
		if len(reply.Calls) == 0 || rounds >= o.opts.maxIterations {
			// Either a final answer, or the cap forces one from whatever
			// content the model sent along with its last request.
			content = reply.Content
			o.session.Append(Message{Role: RoleAssistant, Content: reply.Content})
			break
		}

		o.session.Append(Message{Role: RoleAssistant, Content: reply.Content, Calls: reply.Calls})
		o.opts.logger.InfoContext(ctx, "round requested calls",
			"round", rounds, "calls", len(reply.Calls))

		results := o.executeRound(ctx, reply.Calls)
		all = append(all, results...)
		for _, res := range results {
			o.session.Append(Message{
				Role:    RoleFunction,
				Name:    res.ToolName,
				CallID:  res.CallID,
				Content: functionContent(res),
			})
		}
	}

	if similar {
		content = framingPhrases[o.opts.pick(len(framingPhrases))] + content
	}
	report := &Report{
		Content:    content,
		Results:    all,
		Iterations: rounds,
		Similar:    similar,
		Elapsed:    time.Since(start),
	}
	o.opts.logger.InfoContext(ctx, "turn finished",
		"iterations", report.Iterations, "results", len(report.Results), "elapsed", report.Elapsed)
	return report, nil
}

// executeRound runs all of one round's requested calls concurrently.
// A call whose argument JSON does not parse becomes a single failed result
// without executing; the round's other calls still run.
func (o *Orchestrator) executeRound(ctx context.Context, requested []RequestedCall) []ToolResult {
	results := make([]ToolResult, len(requested))
	var calls []ToolCall
	var callIdx []int
	for i, rc := range requested {
		id := rc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		var params map[string]any
		if len(rc.Arguments) > 0 {
			if err := json.Unmarshal(rc.Arguments, &params); err != nil {
				results[i] = ToolResult{CallID: id, ToolName: rc.Name, Err: wrapJSONParseError(err)}
				continue
			}
		}
		calls = append(calls, ToolCall{ID: id, ToolName: rc.Name, Params: params})
		callIdx = append(callIdx, i)
	}
	executed := o.registry.ExecuteParallel(ctx, calls)
	for j, res := range executed {
		results[callIdx[j]] = res
	}
	return results
}

// functionContent renders one tool result as the content of a function
// turn. Errors go back as {"error": ...} so the model can self-correct;
// SystemError's message is already opaque.
func functionContent(res ToolResult) string {
	if res.Err != nil {
		data, _ := json.Marshal(map[string]string{"error": res.Err.Error()})
		return string(data)
	}
	data, err := json.Marshal(res.Payload)
	if err != nil {
		return fmt.Sprintf("%v", res.Payload)
	}
	return string(data)
}
