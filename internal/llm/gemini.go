package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := resolveModel(cfg.Model, geminiModels)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}

	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: buildGeminiDeclarations(req.Tools),
		}}
	}

	contents, err := buildGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	text, calls, err := decodeGeminiCandidates(result)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Text:       text,
		ToolCalls:  calls,
		Model:      p.model,
		StopReason: mapGeminiStopReason(result, len(calls)),
	}

	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
		resp.CostUSD = costFor(p.model, resp.Usage)
	}

	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

// buildGeminiContents encodes the neutral conversation into Gemini parts.
// Model-issued calls round-trip as FunctionCall parts on role "model";
// locally computed results go back as FunctionResponse parts on role
// "user". Gemini wants Args/Response as decoded maps, not raw JSON.
func buildGeminiContents(msgs []Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, c := range m.ToolCalls {
				args, err := decodeArgMap(c.Arguments)
				if err != nil {
					return nil, fmt.Errorf("encode call %q: %w", c.Name, err)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   c.ID,
						Name: c.Name,
						Args: args,
					},
				})
			}
			out = append(out, &genai.Content{Role: "model", Parts: parts})

		case RoleTool:
			res := m.ToolResult
			payload, err := decodeArgMap(res.Content)
			if err != nil {
				// Non-object tool output is wrapped so the part stays valid.
				payload = map[string]any{"result": string(res.Content)}
			}
			out = append(out, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       res.CallID,
						Name:     res.Name,
						Response: payload,
					},
				}},
			})

		default:
			out = append(out, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return out, nil
}

func buildGeminiDeclarations(decls []ToolDecl) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, len(decls))
	for i, d := range decls {
		out[i] = &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  buildGeminiSchema(d.Parameters),
		}
	}
	return out
}

func decodeGeminiCandidates(result *genai.GenerateContentResponse) (string, []ToolCall, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil, &ErrInvalidResponse{Err: fmt.Errorf("no candidates in Gemini response")}
	}

	var text string
	var calls []ToolCall
	for i, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return "", nil, &ErrInvalidResponse{Err: fmt.Errorf("decode call args: %w", err)}
			}
			id := part.FunctionCall.ID
			if id == "" {
				// Gemini frequently omits call IDs; synthesize one so
				// result correlation still works.
				id = fmt.Sprintf("%s-%d", part.FunctionCall.Name, i)
			}
			calls = append(calls, ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	return text, calls, nil
}

func decodeArgMap(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// buildGeminiSchema converts a JSON Schema definition map to a genai.Schema.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		schema.Type = mapGeminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
	}

	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if req, ok := def["required"].([]string); ok {
		schema.Required = append(schema.Required, req...)
	}

	if enums, ok := def["enum"].([]any); ok {
		for _, e := range enums {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}

	return schema
}

func mapGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func mapGeminiStopReason(result *genai.GenerateContentResponse, callCount int) string {
	if callCount > 0 {
		return "tool_use"
	}
	if len(result.Candidates) > 0 {
		switch result.Candidates[0].FinishReason {
		case "STOP":
			return "end"
		case "MAX_TOKENS":
			return "max_tokens"
		}
	}
	return "end"
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.Code >= 500:
			return &ErrProviderUnavailable{Err: err}
		default:
			return &ErrProvider{StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
