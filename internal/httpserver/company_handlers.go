package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// handleCompanyRead lists every extracted posting.
func (s *Server) handleCompanyRead(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	masked := make([]maskedCompany, 0, len(companies))
	for _, c := range companies {
		masked = append(masked, maskCompany(c))
	}
	s.writeJSON(w, http.StatusOK, masked)
}

// handleCompanyUpsert creates or overwrites the posting for a session.
func (s *Server) handleCompanyUpsert(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	company, err := s.store.UpsertCompany(r.Context(), sessionID, string(body))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.logger.Printf("company.upsert session=%s", sessionID)
	s.writeJSON(w, http.StatusOK, maskCompany(company))
}
