package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stackhire/intake-gateway/internal/openai"
)

// scriptedAdapter returns queued replies in order and records call counts.
type scriptedAdapter struct {
	replies []string
	calls   int
	err     error
}

func (a *scriptedAdapter) CreateCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	a.calls++
	if a.err != nil {
		return openai.ChatCompletionResponse{}, a.err
	}
	var reply string
	if len(a.replies) > 0 {
		reply = a.replies[0]
		a.replies = a.replies[1:]
	}
	msg := openai.ChatMessage{Role: openai.RoleAssistant, Content: reply}
	return openai.NewCompletionResponse(req.Model, msg, openai.UsageBreakdown{}), nil
}

func newTestEngine(chat *scriptedAdapter) *Engine {
	return New(chat, DefaultPromptPack())
}

func TestInitialHistoryHasSingleSystemEntry(t *testing.T) {
	engine := newTestEngine(&scriptedAdapter{})
	history := engine.InitialHistory()
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	if history[0].Role != openai.RoleSystem {
		t.Fatalf("expected system role, got %q", history[0].Role)
	}
}

func TestTurnEmptyInputSkipsModel(t *testing.T) {
	chat := &scriptedAdapter{}
	engine := newTestEngine(chat)
	history := engine.InitialHistory()

	result := engine.Turn(context.Background(), history, "   \t\n")
	if chat.calls != 0 {
		t.Fatalf("model called %d times for empty input", chat.calls)
	}
	if result.Reply != DefaultPromptPack().InputPrompt {
		t.Fatalf("unexpected reply %q", result.Reply)
	}
	if len(result.History) != len(history) {
		t.Fatal("history must be unchanged for empty input")
	}
}

func TestTurnAppendsUserAndAssistant(t *testing.T) {
	chat := &scriptedAdapter{replies: []string{"What is the company name?"}}
	engine := newTestEngine(chat)

	result := engine.Turn(context.Background(), engine.InitialHistory(), "hello")
	if len(result.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(result.History))
	}
	if result.History[1].Role != openai.RoleUser || result.History[1].Content != "hello" {
		t.Fatalf("user entry wrong: %+v", result.History[1])
	}
	if result.History[2].Role != openai.RoleAssistant || result.History[2].Content != "What is the company name?" {
		t.Fatalf("assistant entry wrong: %+v", result.History[2])
	}
	if result.Posting != nil {
		t.Fatal("no posting expected from a plain question")
	}
}

func TestTurnModelFailureBecomesErrorReply(t *testing.T) {
	chat := &scriptedAdapter{err: errors.New("connection refused")}
	engine := newTestEngine(chat)

	result := engine.Turn(context.Background(), engine.InitialHistory(), "hello")
	if !strings.HasPrefix(result.Reply, ErrorReplyPrefix) {
		t.Fatalf("expected error-prefixed reply, got %q", result.Reply)
	}
	// the error reply still lands in the transcript as an assistant entry
	last := result.History[len(result.History)-1]
	if last.Role != openai.RoleAssistant || !strings.HasPrefix(last.Content, ErrorReplyPrefix) {
		t.Fatalf("error reply missing from history: %+v", last)
	}
}

func TestTurnEmptyCompletionBecomesErrorReply(t *testing.T) {
	chat := &scriptedAdapter{replies: []string{""}}
	engine := newTestEngine(chat)

	result := engine.Turn(context.Background(), engine.InitialHistory(), "hello")
	if !strings.HasPrefix(result.Reply, ErrorReplyPrefix) {
		t.Fatalf("expected error-prefixed reply, got %q", result.Reply)
	}
}

func TestTurnExtractsValidPosting(t *testing.T) {
	final := `{"company_name":"Acme","company_industry":"Tech","job_position":"Engineer","requirements":[]}`
	chat := &scriptedAdapter{replies: []string{final + "\nFINISHED"}}
	engine := newTestEngine(chat)

	result := engine.Turn(context.Background(), engine.InitialHistory(), "that is everything")
	if result.Posting == nil {
		t.Fatal("expected extracted posting")
	}
	if result.Posting.CompanyName != "Acme" {
		t.Fatalf("unexpected company %q", result.Posting.CompanyName)
	}
}

func TestTurnSwallowsSchemaViolations(t *testing.T) {
	chat := &scriptedAdapter{replies: []string{`{"company_name":"Acme"}`}}
	engine := newTestEngine(chat)

	result := engine.Turn(context.Background(), engine.InitialHistory(), "done?")
	if result.Posting != nil {
		t.Fatal("invalid payload must not produce a posting")
	}
	if strings.HasPrefix(result.Reply, ErrorReplyPrefix) {
		t.Fatal("schema violations must not surface as error replies")
	}
}

func TestGreet(t *testing.T) {
	chat := &scriptedAdapter{replies: []string{"Hello! What company is hiring?"}}
	engine := newTestEngine(chat)

	reply, history := engine.Greet(context.Background(), engine.InitialHistory())
	if reply != "Hello! What company is hiring?" {
		t.Fatalf("unexpected greeting %q", reply)
	}
	if len(history) != 2 || history[1].Role != openai.RoleAssistant {
		t.Fatalf("greeting not appended: %+v", history)
	}
}

func TestGreetFailureLeavesHistoryUnchanged(t *testing.T) {
	chat := &scriptedAdapter{err: errors.New("boom")}
	engine := newTestEngine(chat)

	reply, history := engine.Greet(context.Background(), engine.InitialHistory())
	if !strings.HasPrefix(reply, ErrorReplyPrefix) {
		t.Fatalf("expected error-prefixed greeting, got %q", reply)
	}
	if len(history) != 1 {
		t.Fatalf("history should stay at the system entry, got %d entries", len(history))
	}
}
