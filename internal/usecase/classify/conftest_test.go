package classify

import (
	"context"

	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
)

type mockChat struct {
	chooseFn func(ctx context.Context, query string) (mode.ToolCall, error)
	calls    int
}

func (m *mockChat) ChooseTool(ctx context.Context, query string) (mode.ToolCall, error) {
	m.calls++
	return m.chooseFn(ctx, query)
}
