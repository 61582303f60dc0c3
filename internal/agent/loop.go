package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/paperplan/internal/llm"
)

// DefaultMaxIterations bounds the loop when the model never converges.
const DefaultMaxIterations = 20

// DefaultMaxTokens is the per-turn response budget.
const DefaultMaxTokens = 8192

// Config configures one Loop. Immutable for the lifetime of a run.
type Config struct {
	Provider llm.Provider
	Tools    []Tool

	// System is the system prompt for every turn.
	System string

	// MaxIterations caps the number of model turns. Default 20.
	MaxIterations int

	// MaxTokens is the per-turn response budget. Default 8192.
	MaxTokens int

	Log *zap.Logger
}

// Totals accumulates usage and cost across every turn of a run,
// including turns that preceded a later provider error. The caller
// bills for every call made, not just the successful ones.
type Totals struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

func (t *Totals) add(resp *llm.Response) {
	t.InputTokens += resp.Usage.InputTokens
	t.OutputTokens += resp.Usage.OutputTokens
	t.CostUSD += resp.CostUSD
}

// Result is the outcome of one Run.
type Result struct {
	// FinalText is the model's closing reasoning, recorded when the
	// loop converges.
	FinalText string

	// Iterations is the number of model turns taken.
	Iterations int

	// Incomplete is set when the loop stopped on the iteration budget
	// or the context deadline rather than on convergence. Callers must
	// verify the accumulated output against their expectations and
	// surface a partial-success warning.
	Incomplete bool

	Totals Totals
}

// Loop owns one conversation and drives the model until it stops
// requesting tool calls. Strictly sequential: tool calls within a turn
// run one after another in the order the model issued them, because
// later calls may depend on state the earlier ones established.
type Loop struct {
	provider llm.Provider
	reg      *registry
	system   string
	maxIter  int
	maxTok   int
	log      *zap.Logger

	conversation []llm.Message
}

// New creates a Loop from configuration.
func New(cfg Config) *Loop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	maxTok := cfg.MaxTokens
	if maxTok <= 0 {
		maxTok = DefaultMaxTokens
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		provider: cfg.Provider,
		reg:      newRegistry(cfg.Tools),
		system:   cfg.System,
		maxIter:  maxIter,
		maxTok:   maxTok,
		log:      log,
	}
}

// Run seeds the conversation with the task description and iterates
// until convergence, the iteration budget, or the context deadline.
// The returned Result is non-nil even on provider error so accumulated
// usage is never lost.
func (l *Loop) Run(ctx context.Context, task string) (*Result, error) {
	l.conversation = []llm.Message{llm.TaskMessage(task)}
	result := &Result{}

	for result.Iterations < l.maxIter {
		if err := ctx.Err(); err != nil {
			// Deadline between turns: stop with partial results, same
			// semantics as the iteration budget.
			l.log.Warn("deadline reached mid-loop", zap.Int("iterations", result.Iterations))
			result.Incomplete = true
			return result, nil
		}

		resp, err := l.provider.Generate(ctx, llm.Request{
			System:    l.system,
			Messages:  l.conversation,
			Tools:     l.reg.decls,
			MaxTokens: l.maxTok,
		})
		if err != nil {
			return result, fmt.Errorf("model turn %d: %w", result.Iterations+1, err)
		}

		result.Iterations++
		result.Totals.add(resp)

		// The model's own turn goes into history before any results,
		// so every call request has its matching answer next turn.
		l.conversation = append(l.conversation, llm.ModelTurn(resp.Text, resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			result.FinalText = resp.Text
			return result, nil
		}

		for _, call := range resp.ToolCalls {
			l.conversation = append(l.conversation, llm.ToolResultMessage(l.execute(ctx, call)))
		}
	}

	l.log.Warn("iteration budget exhausted; plan may be incomplete",
		zap.Int("max_iterations", l.maxIter))
	result.Incomplete = true
	return result, nil
}

// execute dispatches one tool call. Failures become {error: ...}
// payloads fed back to the model so it can self-correct on the next
// turn instead of aborting the run.
func (l *Loop) execute(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	tool, ok := l.reg.lookup(call.Name)
	if !ok {
		return errorResult(call, fmt.Sprintf("unknown tool %q", call.Name))
	}

	if err := llm.ValidateToolArgs(tool.Decl(), call.Arguments); err != nil {
		l.log.Warn("tool arguments rejected", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call, err.Error())
	}

	payload, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		l.log.Warn("tool execution failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call, err.Error())
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return errorResult(call, fmt.Sprintf("encode result: %v", err))
	}

	return llm.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
	}
}

func errorResult(call llm.ToolCall, msg string) llm.ToolResult {
	content, _ := json.Marshal(map[string]string{"error": msg})
	return llm.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: true,
	}
}
