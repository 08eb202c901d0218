package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/shindan/internal/assessor"
	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
	"github.com/MikeSquared-Agency/shindan/internal/narrative"
	"github.com/MikeSquared-Agency/shindan/internal/report"
	"github.com/MikeSquared-Agency/shindan/internal/responselog"
	"github.com/MikeSquared-Agency/shindan/internal/session"
)

const maxBodyBytes = 64 << 10

// SubmitRequest is the questionnaire form.
type SubmitRequest struct {
	Answers diagnosis.Answers `json:"answers"`
	Company string            `json:"company"`
	Email   string            `json:"email"`
}

// NarrativeRequest sets the narrative override by hand.
type NarrativeRequest struct {
	Text string `json:"text"`
}

// DiagnosisView is the result screen.
type DiagnosisView struct {
	SessionID         string           `json:"session_id"`
	Result            diagnosis.Result `json:"result"`
	Narrative         string           `json:"narrative"`
	NarrativeOverride bool             `json:"narrative_override"`
	Report            report.Model     `json:"report"`
	Stores            StoresView       `json:"stores"`
	Notice            string           `json:"notice,omitempty"`
}

type StoresView struct {
	Remote bool `json:"remote"`
	File   bool `json:"file"`
}

// LogResponse confirms an appended row.
type LogResponse struct {
	Logged bool              `json:"logged"`
	Store  string            `json:"store"`
	Row    map[string]string `json:"row"`
}

func (s *Server) view(r *http.Request, st *session.State) (DiagnosisView, error) {
	m, err := s.assessor.Report(r.Context(), st.ID)
	if err != nil {
		return DiagnosisView{}, err
	}
	remote, file := s.assessor.Stores()
	return DiagnosisView{
		SessionID:         st.ID.String(),
		Result:            st.Result,
		Narrative:         st.EffectiveNarrative(),
		NarrativeOverride: st.Narrative != "",
		Report:            m,
		Stores:            StoresView{Remote: remote, File: file},
	}, nil
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int, st *session.State, notice string) {
	v, err := s.view(r, st)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	v.Notice = notice
	writeJSON(w, status, v)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "diagnosis not found or expired")
		return
	}
	slog.Error("session lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "session lookup failed")
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid diagnosis id")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

// questions handles GET /api/v1/questions
func (s *Server) questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": diagnosis.Questions})
}

// submit handles POST /api/v1/diagnoses
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := s.assessor.Submit(r.Context(), req.Answers, diagnosis.Contact{Company: req.Company, Email: req.Email})
	if err != nil {
		var iae *diagnosis.InvalidAnswerError
		if errors.As(err, &iae) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":    err.Error(),
				"question": iae.QuestionID,
				"value":    iae.Value,
			})
			return
		}
		slog.Error("submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	s.writeView(w, r, http.StatusCreated, st, "")
}

// getDiagnosis handles GET /api/v1/diagnoses/{id}
func (s *Server) getDiagnosis(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	st, err := s.assessor.Get(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeView(w, r, http.StatusOK, st, "")
}

// generateNarrative handles POST /api/v1/diagnoses/{id}/narrative.
// An unavailable generator is not an error for the client: the view comes
// back with the current narrative and a notice.
func (s *Server) generateNarrative(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	st, err := s.assessor.GenerateNarrative(r.Context(), id)
	if errors.Is(err, narrative.ErrUnavailable) {
		s.writeView(w, r, http.StatusOK, st, err.Error())
		return
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeView(w, r, http.StatusOK, st, "")
}

// setNarrative handles PUT /api/v1/diagnoses/{id}/narrative
func (s *Server) setNarrative(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req NarrativeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.assessor.SetNarrative(r.Context(), id, req.Text)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeView(w, r, http.StatusOK, st, "")
}

// clearNarrative handles DELETE /api/v1/diagnoses/{id}/narrative
func (s *Server) clearNarrative(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	st, err := s.assessor.ClearNarrative(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeView(w, r, http.StatusOK, st, "")
}

// reportPDF handles GET /api/v1/diagnoses/{id}/report.pdf
func (s *Server) reportPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	doc, err := s.assessor.RenderReport(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.writeSessionError(w, err)
		return
	}
	if err != nil {
		slog.Error("report rendering failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "report rendering failed")
		return
	}

	if len(doc.Degraded) > 0 {
		omitted := make([]string, 0, len(doc.Degraded))
		for _, d := range doc.Degraded {
			omitted = append(omitted, d.Artifact)
		}
		w.Header().Set("X-Report-Omitted", strings.Join(omitted, ","))
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Bytes)
}

// logRemote handles POST /api/v1/diagnoses/{id}/log/remote
func (s *Server) logRemote(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	row, err := s.assessor.LogRemote(r.Context(), id)
	s.writeLogResult(w, "remote", row, err)
}

// logFile handles POST /api/v1/diagnoses/{id}/log/file
func (s *Server) logFile(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	row, err := s.assessor.LogFile(r.Context(), id)
	s.writeLogResult(w, "file", row, err)
}

func (s *Server) writeLogResult(w http.ResponseWriter, store string, row responselog.Row, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, LogResponse{Logged: true, Store: store, Row: row.Map()})
	case errors.Is(err, assessor.ErrStoreNotConfigured):
		writeError(w, http.StatusServiceUnavailable, store+" log store is not configured")
	case errors.Is(err, responselog.ErrAppendFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeSessionError(w, err)
	}
}
