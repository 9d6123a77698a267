package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stackhire/intake-gateway/internal/mailbox"
)

// handleChatCreate creates a session and schedules greeting generation. The
// response carries the record immediately; the greeting arrives on the
// session's event stream.
func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.orch.StartConversation(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.logger.Printf("chat.create session=%s", sess.ID)
	s.writeJSON(w, http.StatusOK, maskSession(sess))
}

func (s *Server) handleChatRead(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.store.ReadSession(r.Context(), sessionID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, maskSession(sess))
}

// handleChatUpdate overwrites the stored transcript with the request body.
func (s *Server) handleChatUpdate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.store.UpdateSessionMessages(r.Context(), sessionID, string(body))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, maskSession(sess))
}

// handleUserMessage schedules a turn and echoes the input as acknowledgment.
// The assistant reply is delivered through the event stream, not here.
func (s *Server) handleUserMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.ReadSession(r.Context(), sessionID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	message := string(body)
	s.orch.DispatchTurn(sessionID, message)
	s.logger.Printf("chat.user-message session=%s len=%d", sessionID, len(message))
	s.writeJSON(w, http.StatusOK, message)
}

// handleChatEvents streams published replies for a session as SSE until the
// FINISHED sentinel arrives or the client disconnects. Either path drops the
// subscription; a replacing subscriber takes over silently.
func (s *Server) handleChatEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ch := s.mailbox.Subscribe(sessionID)
	defer s.mailbox.Unsubscribe(sessionID, ch)

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	s.logger.Printf("chat.events session=%s stream open", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Printf("chat.events session=%s client disconnected", sessionID)
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			if data == mailbox.Finished {
				s.logger.Printf("chat.events session=%s finished", sessionID)
				return
			}
			writeSSE(w, "message", data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// writeSSE emits one event, splitting multi-line payloads into data: lines as
// the protocol requires.
func writeSSE(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
