package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hunter/lead-enricher/internal/session"
)

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// sessionID parses the {id} path value. Writes the error response itself
// and reports ok=false when the value is not a UUID.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// handleCreateSession creates a fresh workflow session
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.store.Create()
	s.jsonResponse(w, http.StatusCreated, sess)
}

// handleGetSession returns the full serialized session state
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	// Serialize under the store lock so a concurrent scrape or analyze
	// cannot mutate the session mid-encode.
	var body []byte
	err := s.store.With(id, func(sess *session.Session) error {
		var marshalErr error
		body, marshalErr = json.Marshal(sess)
		return marshalErr
	})
	if err != nil {
		s.handlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleDeleteSession discards a session and all its state
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	s.store.Delete(id)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
