package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/paperplan/internal/llm"
)

// echoTool returns its arguments back as the payload.
type echoTool struct {
	calls int
	fail  error
}

func (e *echoTool) Decl() llm.ToolDecl {
	return llm.ToolDecl{
		Name:        "echo",
		Description: "Echoes its arguments.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"value": map[string]any{"type": "string"}},
			"required":   []string{"value"},
		},
	}
}

func (e *echoTool) Execute(_ context.Context, args json.RawMessage) (any, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	var payload map[string]any
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func echoCall(id string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: "echo", Arguments: json.RawMessage(`{"value":"hi"}`)}
}

func usage(in, out int) llm.Usage {
	return llm.Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

func TestLoop_ConvergesOnPlainText(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: "done", Usage: usage(10, 5), CostUSD: 0.01},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{&echoTool{}}})

	result, err := loop.Run(context.Background(), "do nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalText != "done" {
		t.Fatalf("expected final text %q, got %q", "done", result.FinalText)
	}
	if result.Iterations != 1 || result.Incomplete {
		t.Fatalf("expected one complete iteration, got %+v", result)
	}
	if result.Totals.InputTokens != 10 || result.Totals.OutputTokens != 5 {
		t.Fatalf("usage not accumulated: %+v", result.Totals)
	}
}

func TestLoop_AnswersEveryCallBeforeNextTurn(t *testing.T) {
	tool := &echoTool{}
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{echoCall("c1"), echoCall("c2")}, Usage: usage(10, 5)},
		llm.MockResponse{Text: "done", Usage: usage(20, 5)},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{tool}})

	result, err := loop.Run(context.Background(), "echo twice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.calls != 2 {
		t.Fatalf("expected 2 executions, got %d", tool.calls)
	}
	if result.Iterations != 2 {
		t.Fatalf("expected 2 iterations, got %d", result.Iterations)
	}

	// Second request must carry the assistant turn followed by a
	// result for each call, in issue order.
	second := mock.Calls[1].Messages
	if len(second) != 4 {
		t.Fatalf("expected 4 messages in second request, got %d", len(second))
	}
	if second[1].Role != llm.RoleAssistant || len(second[1].ToolCalls) != 2 {
		t.Fatalf("assistant turn not recorded: %+v", second[1])
	}
	for i, id := range []string{"c1", "c2"} {
		msg := second[2+i]
		if msg.Role != llm.RoleTool || msg.ToolResult == nil || msg.ToolResult.CallID != id {
			t.Fatalf("result %d does not answer call %s: %+v", i, id, msg)
		}
	}
}

func TestLoop_IterationBudget(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{echoCall("c1")}, Usage: usage(10, 5), CostUSD: 0.25},
	)
	mock.Repeat = true
	loop := New(Config{Provider: mock, Tools: []Tool{&echoTool{}}, MaxIterations: 3})

	result, err := loop.Run(context.Background(), "never stop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Incomplete {
		t.Fatal("expected Incomplete after budget exhaustion")
	}
	if result.Iterations != 3 || mock.CallCount() != 3 {
		t.Fatalf("expected exactly 3 turns, got %d iterations / %d calls",
			result.Iterations, mock.CallCount())
	}
	if result.Totals.InputTokens != 30 || result.Totals.CostUSD != 0.75 {
		t.Fatalf("usage not accumulated across turns: %+v", result.Totals)
	}
}

func TestLoop_ToolErrorFedBackToModel(t *testing.T) {
	tool := &echoTool{fail: errors.New("calendar unavailable")}
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{echoCall("c1")}, Usage: usage(10, 5)},
		llm.MockResponse{Text: "gave up", Usage: usage(20, 5)},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{tool}})

	result, err := loop.Run(context.Background(), "echo")
	if err != nil {
		t.Fatalf("tool failure must not abort the run: %v", err)
	}
	if result.FinalText != "gave up" {
		t.Fatalf("expected second turn to conclude, got %+v", result)
	}

	res := mock.Calls[1].Messages[2].ToolResult
	if res == nil || !res.IsError {
		t.Fatalf("expected error result, got %+v", res)
	}
	if !strings.Contains(string(res.Content), "calendar unavailable") {
		t.Fatalf("error payload missing cause: %s", res.Content)
	}
}

func TestLoop_InvalidArgumentsRejectedBeforeExecution(t *testing.T) {
	tool := &echoTool{}
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{{
			ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"wrong":1}`),
		}}, Usage: usage(10, 5)},
		llm.MockResponse{Text: "ok", Usage: usage(20, 5)},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{tool}})

	if _, err := loop.Run(context.Background(), "echo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.calls != 0 {
		t.Fatal("tool executed despite invalid arguments")
	}
	res := mock.Calls[1].Messages[2].ToolResult
	if res == nil || !res.IsError {
		t.Fatalf("expected error result for invalid arguments, got %+v", res)
	}
}

func TestLoop_UnknownTool(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{{
			ID: "c1", Name: "nonexistent", Arguments: json.RawMessage(`{}`),
		}}, Usage: usage(10, 5)},
		llm.MockResponse{Text: "ok", Usage: usage(20, 5)},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{&echoTool{}}})

	if _, err := loop.Run(context.Background(), "call something"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := mock.Calls[1].Messages[2].ToolResult
	if res == nil || !res.IsError || !strings.Contains(string(res.Content), "unknown tool") {
		t.Fatalf("expected unknown-tool error result, got %+v", res)
	}
}

func TestLoop_ProviderErrorPreservesUsage(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{echoCall("c1")}, Usage: usage(10, 5), CostUSD: 0.02},
		llm.MockResponse{Err: errors.New("boom")},
	)
	loop := New(Config{Provider: mock, Tools: []Tool{&echoTool{}}})

	result, err := loop.Run(context.Background(), "echo")
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
	if result == nil {
		t.Fatal("result must be returned alongside the error")
	}
	if result.Totals.InputTokens != 10 || result.Totals.CostUSD != 0.02 {
		t.Fatalf("usage from the turn before the error lost: %+v", result.Totals)
	}
}

func TestLoop_DeadlineStopsWithPartialResult(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{ToolCalls: []llm.ToolCall{echoCall("c1")}, Usage: usage(10, 5)},
	)
	mock.Repeat = true
	loop := New(Config{Provider: mock, Tools: []Tool{&echoTool{}}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	result, err := loop.Run(ctx, "echo forever")
	if err != nil {
		t.Fatalf("deadline must not surface as an error: %v", err)
	}
	if !result.Incomplete {
		t.Fatal("expected Incomplete on deadline")
	}
}
