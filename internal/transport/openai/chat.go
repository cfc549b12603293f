package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

const routingPrompt = `You route grant search queries. Call exactly one tool.
Use filter_grants_by_keyword for short queries of one to three words, agency names, acronyms and other proper nouns.
Use search_grants_with_rag for descriptive queries that explain a need, a project or a population.`

// ToolRouter asks a chat model to pick one of the two search tools.
type ToolRouter struct {
	client *openai.Client
	model  string
	tools  []openai.Tool
	logger *zap.Logger
}

// NewToolRouter creates a tool-routing chat client; cfg.Model names the chat model.
func NewToolRouter(cfg *Config) *ToolRouter {
	return &ToolRouter{
		client: newClient(cfg),
		model:  cfg.Model,
		tools:  searchTools(),
		logger: loggerOrNop(cfg.Logger),
	}
}

// ChooseTool returns the first tool call of the model's reply.
func (r *ToolRouter) ChooseTool(ctx context.Context, query string) (mode.ToolCall, error) {
	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: routingPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Tools:       r.tools,
		ToolChoice:  "required",
		Temperature: 0,
		MaxTokens:   200,
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.ChatRequestDuration.WithLabelValues(r.model, "error").Observe(elapsed)
		return mode.ToolCall{}, fmt.Errorf("tool routing: %w", parseAPIError(err))
	}
	metrics.ChatRequestDuration.WithLabelValues(r.model, "success").Observe(elapsed)

	for _, choice := range resp.Choices {
		for _, tc := range choice.Message.ToolCalls {
			if tc.Function.Name == "" {
				continue
			}
			r.logger.Debug("tool chosen", zap.String("tool", tc.Function.Name))
			return mode.ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments}, nil
		}
	}
	return mode.ToolCall{}, fmt.Errorf("tool routing: no tool call in reply: %w", domain.ErrDependency)
}

// HealthCheck verifies API availability.
func (r *ToolRouter) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func searchTools() []openai.Tool {
	cats := grant.Categories()
	enum := make([]string, len(cats))
	for i, c := range cats {
		enum[i] = string(c)
	}
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        mode.ToolFilterByKeyword,
				Description: "Filter grants by a short keyword, agency name or proper noun.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"keyword": map[string]any{
							"type":        "string",
							"description": "The keyword to match against grant names, agencies and categories.",
						},
					},
					"required": []string{"keyword"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        mode.ToolSearchWithRAG,
				Description: "Semantic search over grant documents for descriptive needs.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search request restated as a short description.",
						},
						"category": map[string]any{
							"type":        "string",
							"enum":        enum,
							"description": "Funding category when the query clearly implies one.",
						},
						"agency": map[string]any{
							"type":        "string",
							"description": "Funding agency when the query names one.",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}
