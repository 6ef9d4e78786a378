package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"catalog/selector/internal/cascade"
	"catalog/selector/internal/domain"
	"catalog/selector/internal/session"
	"catalog/selector/internal/submission"
)

type idRequest struct {
	ID int `json:"id"`
}

type answerRequest struct {
	SelectedOption string `json:"selectedOption"`
	CustomValue    string `json:"customValue"`
}

type submitResponse struct {
	SubmissionID string                   `json:"submissionId,omitempty"`
	Result       *domain.SubmissionResult `json:"result"`
}

type validationResponse struct {
	Errors map[string]string `json:"errors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Categories())
}

func (s *Server) listSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := intParam(w, r, "categoryId")
	if !ok {
		return
	}
	cat, found := s.catalog.FindCategory(categoryID)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("category %d not found", categoryID))
		return
	}
	writeJSON(w, http.StatusOK, cat.Children)
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := intParam(w, r, "categoryId")
	if !ok {
		return
	}
	subcategoryID, ok := intParam(w, r, "subcategoryId")
	if !ok {
		return
	}
	sub, found := s.catalog.FindSubcategory(categoryID, subcategoryID)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("subcategory %d of category %d not found", subcategoryID, categoryID))
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.PropertyChainOf(sub))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	s.sessions.Remove(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setMainCategory(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.update(w, r, func(e *cascade.Engine) error {
		e.SetMainCategory(req.ID)
		return nil
	})
}

func (s *Server) setSubcategory(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.update(w, r, func(e *cascade.Engine) error {
		return e.SetSubcategory(req.ID)
	})
}

func (s *Server) clearSubcategory(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(e *cascade.Engine) error {
		e.ClearSubcategory()
		return nil
	})
}

func (s *Server) setAnswer(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := intParam(w, r, "propertyId")
	if !ok {
		return
	}
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.update(w, r, func(e *cascade.Engine) error {
		return e.SetAnswer(propertyID, req.SelectedOption, req.CustomValue)
	})
}

func (s *Server) clearAnswer(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := intParam(w, r, "propertyId")
	if !ok {
		return
	}
	s.update(w, r, func(e *cascade.Engine) error {
		return e.ClearAnswer(propertyID)
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(e *cascade.Engine) error {
		e.Reset()
		return nil
	})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var result *domain.SubmissionResult
	snap, err := s.sessions.Update(r.Context(), sessionID, func(e *cascade.Engine) error {
		var submitErr error
		result, submitErr = e.Submit()
		return submitErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := submitResponse{Result: result}
	if s.publisher != nil {
		id, err := s.publisher.Publish(r.Context(), sessionID, snap.Selection, result)
		if err != nil {
			log.Errorf("❌ Failed to publish submission for session %s: %v", sessionID, err)
			writeError(w, http.StatusServiceUnavailable, errors.New("submission could not be stored, try again"))
			return
		}
		resp.SubmissionID = id
	}

	log.Infof("✅ Session %s submitted %d fields", sessionID, result.Len())
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result := sess.Snapshot().Result

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		data, err := submission.RenderJSON(result)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case "table":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := submission.RenderTable(w, result); err != nil {
			log.Errorf("Failed to render table for session %s: %v", sess.ID, err)
		}
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := submission.RenderHTML(w, result); err != nil {
			log.Errorf("Failed to render html for session %s: %v", sess.ID, err)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q", format))
	}
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(e *cascade.Engine) error) {
	snap, err := s.sessions.Update(r.Context(), chi.URLParam(r, "sessionId"), fn)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// writeEngineError maps session and engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verrs.ByField()})
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrStalePropertyReference):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrEmptyOption), errors.Is(err, domain.ErrUnknownOption):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Errorf("❌ Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
