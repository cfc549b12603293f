package classify

import (
	"context"

	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
)

// Classifier routes a free-text query to a retrieval path.
type Classifier interface {
	Classify(ctx context.Context, query string) (mode.Decision, error)
}

// ChatClient asks an inference endpoint to choose one search tool.
type ChatClient interface {
	ChooseTool(ctx context.Context, query string) (mode.ToolCall, error)
}
