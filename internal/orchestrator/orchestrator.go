// Package orchestrator glues the dialogue engine, persistence, and the reply
// mailbox together: it runs turns in the background while requests return
// immediately, and applies each session's turns in submission order.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stackhire/intake-gateway/internal/agent"
	"github.com/stackhire/intake-gateway/internal/mailbox"
	"github.com/stackhire/intake-gateway/internal/openai"
	"github.com/stackhire/intake-gateway/internal/store"
)

// Orchestrator coordinates conversation turns for many sessions at once.
// Work for the same session runs one task at a time, in the order it was
// submitted, through a per-session FIFO queue; different sessions proceed
// concurrently.
type Orchestrator struct {
	store         store.Store
	engine        *agent.Engine
	mailbox       *mailbox.Mailbox
	greetingDelay time.Duration
	logger        *log.Logger

	mu     sync.Mutex
	queues map[string]*sessionQueue
}

// sessionQueue is the ordered backlog of work for one session. An entry
// exists only while work is pending or running; drain removes it once empty.
type sessionQueue struct {
	pending []func()
	running bool
}

// New creates an Orchestrator. greetingDelay paces the initial greeting
// publish; it is a UX control, not a correctness one.
func New(st store.Store, engine *agent.Engine, mb *mailbox.Mailbox, greetingDelay time.Duration) *Orchestrator {
	return &Orchestrator{
		store:         st,
		engine:        engine,
		mailbox:       mb,
		greetingDelay: greetingDelay,
		logger:        log.New(log.Writer(), "[orchestrator] ", log.LstdFlags|log.Lmicroseconds),
		queues:        make(map[string]*sessionQueue),
	}
}

// SetLogger overrides the default logger; nil keeps the current logger.
func (o *Orchestrator) SetLogger(logger *log.Logger) {
	if logger != nil {
		o.logger = logger
	}
}

// StartConversation creates a new session whose transcript holds only the
// system entry, schedules greeting generation in the background, and returns
// the record immediately. The greeting arrives later via the mailbox.
func (o *Orchestrator) StartConversation(ctx context.Context) (store.Session, error) {
	transcript, err := encodeHistory(o.engine.InitialHistory())
	if err != nil {
		return store.Session{}, err
	}
	sess, err := o.store.CreateSession(ctx, transcript)
	if err != nil {
		return store.Session{}, err
	}
	o.DispatchGreeting(sess.ID)
	return sess, nil
}

// DispatchGreeting queues greeting generation as a background task.
func (o *Orchestrator) DispatchGreeting(sessionID string) {
	o.enqueue(sessionID, func() {
		if err := o.greet(context.Background(), sessionID); err != nil {
			o.logger.Printf("greeting session=%s failed: %v", sessionID, err)
		}
	})
}

// DispatchTurn queues one turn and returns without waiting for it. The
// triggering request acknowledges immediately; the reply reaches the client
// through the session's mailbox channel. The turn's place in line is claimed
// before DispatchTurn returns, so back-to-back calls apply in call order.
func (o *Orchestrator) DispatchTurn(sessionID, userMessage string) {
	o.enqueue(sessionID, func() {
		if err := o.turn(context.Background(), sessionID, userMessage); err != nil {
			o.logger.Printf("turn session=%s failed: %v", sessionID, err)
		}
	})
}

// Greet runs greeting generation through the session's queue and waits for it
// to complete.
func (o *Orchestrator) Greet(ctx context.Context, sessionID string) error {
	done := make(chan error, 1)
	o.enqueue(sessionID, func() { done <- o.greet(ctx, sessionID) })
	return <-done
}

// Turn runs one dialogue turn through the session's queue and waits for it to
// complete.
func (o *Orchestrator) Turn(ctx context.Context, sessionID, userMessage string) error {
	done := make(chan error, 1)
	o.enqueue(sessionID, func() { done <- o.turn(ctx, sessionID, userMessage) })
	return <-done
}

// enqueue appends run to the session's backlog and starts a worker when none
// is running. The append happens in the caller's goroutine, so backlog order
// is submission order even when callers return before the work runs.
func (o *Orchestrator) enqueue(sessionID string, run func()) {
	o.mu.Lock()
	q, ok := o.queues[sessionID]
	if !ok {
		q = &sessionQueue{}
		o.queues[sessionID] = q
	}
	q.pending = append(q.pending, run)
	if q.running {
		o.mu.Unlock()
		return
	}
	q.running = true
	o.mu.Unlock()
	go o.drain(sessionID, q)
}

// drain executes the session's backlog in FIFO order and removes the queue
// entry once it is empty, so idle sessions hold no orchestrator state.
func (o *Orchestrator) drain(sessionID string, q *sessionQueue) {
	for {
		o.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			delete(o.queues, sessionID)
			o.mu.Unlock()
			return
		}
		run := q.pending[0]
		q.pending = q.pending[1:]
		o.mu.Unlock()
		run()
	}
}

// greet produces the opening assistant message for sessionID, waits the
// configured pacing delay, persists the transcript, and publishes the
// greeting.
func (o *Orchestrator) greet(ctx context.Context, sessionID string) error {
	reply, history := o.engine.Greet(ctx, o.engine.InitialHistory())

	if o.greetingDelay > 0 {
		select {
		case <-time.After(o.greetingDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := o.persist(ctx, sessionID, history); err != nil {
		return err
	}
	o.mailbox.Publish(sessionID, reply)
	o.logger.Printf("greeting session=%s published", sessionID)
	return nil
}

// turn runs one dialogue turn for sessionID: load record, run the engine,
// persist the updated transcript, upsert any extracted posting, publish the
// reply. The session worker calls it one task at a time.
func (o *Orchestrator) turn(ctx context.Context, sessionID, userMessage string) error {
	sess, err := o.store.ReadSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	history, err := decodeHistory(sess.Messages)
	if err != nil {
		return fmt.Errorf("decode transcript: %w", err)
	}

	result := o.engine.Turn(ctx, history, userMessage)
	o.logger.Printf("turn session=%s reply_len=%d extracted=%t", sessionID, len(result.Reply), result.Posting != nil)

	if err := o.persist(ctx, sessionID, result.History); err != nil {
		return err
	}
	if result.Posting != nil {
		if _, err := o.store.UpsertCompany(ctx, sessionID, result.Posting.Canonical()); err != nil {
			return fmt.Errorf("upsert company: %w", err)
		}
		o.logger.Printf("posting session=%s stored", sessionID)
	}

	o.mailbox.Publish(sessionID, result.Reply)
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, sessionID string, history []openai.ChatMessage) error {
	transcript, err := encodeHistory(history)
	if err != nil {
		return err
	}
	if _, err := o.store.UpdateSessionMessages(ctx, sessionID, transcript); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	return nil
}

func encodeHistory(history []openai.ChatMessage) (string, error) {
	b, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return string(b), nil
}

func decodeHistory(transcript string) ([]openai.ChatMessage, error) {
	if transcript == "" {
		return nil, nil
	}
	var history []openai.ChatMessage
	if err := json.Unmarshal([]byte(transcript), &history); err != nil {
		return nil, err
	}
	return history, nil
}
