package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pearcestephens/session-engine/internal/db"
	"github.com/pearcestephens/session-engine/internal/fingerprint"
	"github.com/pearcestephens/session-engine/internal/profile"
)

// sessionView is the JSON shape of a session record.
type sessionView struct {
	SessionID    string                  `json:"session_id"`
	ProfileName  string                  `json:"profile_name"`
	Fingerprint  fingerprint.Fingerprint `json:"fingerprint"`
	UseCount     int64                   `json:"use_count"`
	SuccessCount int64                   `json:"success_count"`
	BanCount     int64                   `json:"ban_count"`
	RiskScore    int                     `json:"risk_score"`
	Status       string                  `json:"status"`
	CreatedAt    string                  `json:"created_at"`
}

func viewOf(s *db.Session) sessionView {
	return sessionView{
		SessionID:    s.ID,
		ProfileName:  s.ProfileName,
		Fingerprint:  s.Fingerprint,
		UseCount:     s.UseCount,
		SuccessCount: s.SuccessCount,
		BanCount:     s.BanCount,
		RiskScore:    s.RiskScore,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Nothing
// is swallowed: unknown errors become a 500 with a generic code.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, db.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, db.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, profile.ErrNoEligibleProfile):
		status, code = http.StatusNotFound, "no_eligible_profile"
	case errors.Is(err, db.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, db.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "storage_timeout"
	case errors.Is(err, db.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "storage_unavailable"
	default:
		status, code = http.StatusInternalServerError, "internal"
	}
	writeJSON(w, status, errorResponse{Error: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	ProfileName string `json:"profile_name"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}

	sess, err := s.mgr.CreateSession(req.ProfileName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	// ?max_risk filters down to active sessions under the given persisted
	// score; without it the full audit view is returned.
	if v := r.URL.Query().Get("max_risk"); v != "" {
		maxRisk, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input"})
			return
		}
		sessions, err := s.mgr.ListEligible(maxRisk)
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]sessionView, 0, len(sessions))
		for i := range sessions {
			views = append(views, viewOf(&sessions[i]))
		}
		writeJSON(w, http.StatusOK, views)
		return
	}

	limit := 100
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	sessions, err := s.mgr.ListSessions(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, viewOf(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSelectBest(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.SelectBestProfile()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// usageResponse returns the updated record plus the rotation verdict so
// workers can retire a burned profile in the same round-trip.
type usageResponse struct {
	Session      sessionView `json:"session"`
	ShouldRotate bool        `json:"should_rotate"`
}

func (s *Server) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var ev profile.UsageEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}

	id := chi.URLParam(r, "id")
	sess, err := s.mgr.RecordUsage(id, ev)
	if err != nil {
		writeError(w, err)
		return
	}

	rotate, err := s.mgr.ShouldRotate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Session: viewOf(sess), ShouldRotate: rotate})
}

func (s *Server) handleRetire(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.RetireProfile(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": db.StatusRetired})
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var presented fingerprint.Fingerprint
	if err := json.NewDecoder(r.Body).Decode(&presented); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}

	valid, err := s.mgr.ValidateFingerprint(chi.URLParam(r, "id"), presented)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: valid})
}

type cleanupResponse struct {
	Removed int64 `json:"removed"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.mgr.Cleanup()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Removed: removed})
}
