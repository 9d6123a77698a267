package loopback

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stackhire/intake-gateway/internal/adapter"
	"github.com/stackhire/intake-gateway/internal/openai"
)

// Ensure Adapter implements ChatAdapter.
var _ adapter.ChatAdapter = (*Adapter)(nil)

// Adapter fabricates deterministic completions so the intake pipeline can run
// without an upstream model (tests, keyless dev runs).
//
// With no script queued it echoes the last user message; queued replies are
// consumed in FIFO order.
type Adapter struct {
	mu      sync.Mutex
	scripts []string
}

// New creates an Adapter instance.
func New() *Adapter {
	return &Adapter{}
}

// Queue appends scripted assistant replies returned by subsequent completions.
func (a *Adapter) Queue(replies ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts = append(a.scripts, replies...)
}

// CreateCompletion returns the next scripted reply, or echoes the last user message.
func (a *Adapter) CreateCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no messages provided")
	}

	a.mu.Lock()
	var scripted string
	if len(a.scripts) > 0 {
		scripted = a.scripts[0]
		a.scripts = a.scripts[1:]
	}
	a.mu.Unlock()

	content := scripted
	if content == "" {
		// find last user message; default to final message if none
		message := req.Messages[len(req.Messages)-1]
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if strings.ToLower(req.Messages[i].Role) == openai.RoleUser {
				message = req.Messages[i]
				break
			}
		}
		content = "[loopback] " + strings.TrimSpace(message.Content)
	}

	reply := openai.ChatMessage{
		Role:    openai.RoleAssistant,
		Content: content,
	}
	usage := openai.UsageBreakdown{
		PromptTokens:     len(req.Messages) * 10,
		CompletionTokens: len(reply.Content) / 4,
		TotalTokens:      len(req.Messages)*10 + len(reply.Content)/4,
	}
	return openai.NewCompletionResponse(req.Model, reply, usage), nil
}
