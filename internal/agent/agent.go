// Package agent drives one intake conversation turn against the model and
// feeds assistant replies through payload extraction.
package agent

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/stackhire/intake-gateway/internal/adapter"
	"github.com/stackhire/intake-gateway/internal/intake"
	"github.com/stackhire/intake-gateway/internal/openai"
)

// ErrorReplyPrefix marks replies that carry a model/transport failure. The
// failure travels to the client as an ordinary reply string so the streaming
// consumer renders it without a separate error channel.
const ErrorReplyPrefix = "Error: "

const modelUnavailableReply = ErrorReplyPrefix + "Could not reach the model. Please try again."

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	Reply   string
	History []openai.ChatMessage
	// Posting is non-nil only when this turn's reply validated against the
	// job-posting schema.
	Posting *intake.JobPosting
}

// Engine runs intake conversation turns. It is stateless across turns: the
// caller owns the history.
type Engine struct {
	chat   adapter.ChatAdapter
	pack   PromptPack
	logger *log.Logger
}

// New creates an Engine using the supplied chat adapter and prompt pack.
func New(chat adapter.ChatAdapter, pack PromptPack) *Engine {
	return &Engine{
		chat:   chat,
		pack:   pack,
		logger: log.New(log.Writer(), "[agent] ", log.LstdFlags|log.Lmicroseconds),
	}
}

// SetLogger overrides the default logger; nil keeps the current logger.
func (e *Engine) SetLogger(logger *log.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// InitialHistory returns a fresh transcript holding only the system entry.
func (e *Engine) InitialHistory() []openai.ChatMessage {
	return []openai.ChatMessage{{Role: openai.RoleSystem, Content: e.pack.SystemPrompt}}
}

// Greet asks the model for the opening question of a new conversation. On
// failure the returned reply is error-prefixed and the history is unchanged.
func (e *Engine) Greet(ctx context.Context, history []openai.ChatMessage) (string, []openai.ChatMessage) {
	reply, err := e.complete(ctx, history)
	if err != nil {
		e.logger.Printf("greet failed: %v", err)
		return modelUnavailableReply, history
	}
	return reply, append(history, openai.ChatMessage{Role: openai.RoleAssistant, Content: reply})
}

// Turn appends userMessage to history, obtains the assistant reply, and
// attempts payload extraction on it.
//
// An empty (after trimming) user message short-circuits to a fixed
// prompt-for-input reply without contacting the model. Model failures and
// empty completions become an error-prefixed reply, still appended to the
// history, so the conversation can continue.
func (e *Engine) Turn(ctx context.Context, history []openai.ChatMessage, userMessage string) TurnResult {
	if strings.TrimSpace(userMessage) == "" {
		return TurnResult{Reply: e.pack.InputPrompt, History: history}
	}

	history = append(history, openai.ChatMessage{Role: openai.RoleUser, Content: userMessage})

	reply, err := e.complete(ctx, history)
	if err != nil {
		e.logger.Printf("turn failed: %v", err)
		reply = modelUnavailableReply
	}
	history = append(history, openai.ChatMessage{Role: openai.RoleAssistant, Content: reply})

	return TurnResult{
		Reply:   reply,
		History: history,
		Posting: e.tryExtract(reply),
	}
}

func (e *Engine) complete(ctx context.Context, history []openai.ChatMessage) (string, error) {
	temperature := e.pack.Temperature
	resp, err := e.chat.CreateCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.pack.Model,
		Messages:    history,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	reply := resp.Reply()
	if reply == "" {
		return "", errEmptyCompletion
	}
	return reply, nil
}

// tryExtract scans reply for a brace-delimited slice and validates it.
// Extraction failures are logged and swallowed: the conversation proceeds as
// if no structured payload was present.
func (e *Engine) tryExtract(reply string) *intake.JobPosting {
	candidate := intake.ExtractCandidate(reply)
	if candidate == "" || !intake.IsObjectLike(candidate) {
		return nil
	}
	posting, err := intake.ValidatePosting(candidate)
	if err != nil {
		e.logger.Printf("extraction rejected: %v", err)
		return nil
	}
	e.logger.Printf("extraction validated company=%q position=%q requirements=%d",
		posting.CompanyName, posting.JobPosition, len(posting.Requirements))
	return posting
}

var errEmptyCompletion = errors.New("model returned an empty reply")
