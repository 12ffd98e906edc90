package storeserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/storeapi"
	"github.com/muurk/retype/internal/version"
)

// maxBodySize caps request bodies.
const maxBodySize = 4 << 20

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Get(storeapi.HealthPath, s.handleHealth)
	r.Get(storeapi.ListPath, s.handleList)
	r.Post(storeapi.CreatePath, s.handleCreate)

	r.Get(storeapi.ComponentPath+"{id}", s.handleGet)
	r.Put(storeapi.ComponentPath+"{id}", s.handleSave)
	r.Post(storeapi.ResetPath, s.handleReset)
	r.Post(storeapi.ResetPath+"{id}", s.handleReset)

	r.Get(storeapi.PreviewPath+"{id}", s.handlePreview)
	r.Get(storeapi.EditSocketPath+"{id}", s.handleEdit)
	return r
}

// logRequests logs every request once it has been served.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.LogHTTPRequest(r, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, storeapi.ErrorResponse{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeapi.Health{
		Status:  "ok",
		Version: version.Version,
		Backend: s.config.BackendName,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.config.Backend.List(r.Context())
	if err != nil {
		logging.Error("Failed to list components", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list components")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, storeapi.ListResponse{IDs: ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.config.Backend.Get(r.Context(), id)
	if err != nil {
		if !editerr.IsNotFound(err) {
			logging.Warn("Component lookup failed", zap.String("component_id", id), zap.Error(err))
		}
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, storeapi.Component{ID: rec.ID, Code: rec.Code})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req storeapi.SaveRequest
	if err := decodeBody(r, &req); err != nil || req.Code == nil || *req.Code == "" {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	rec, err := s.config.Backend.Put(r.Context(), id, *req.Code)
	if err != nil {
		if editerr.IsValidation(err) {
			writeError(w, http.StatusBadRequest, editerr.ShortMessage(err))
			return
		}
		logging.Error("Failed to update component", zap.String("component_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update component")
		return
	}
	writeJSON(w, http.StatusOK, storeapi.SaveResponse{
		Message: "Component updated successfully",
		Code:    rec.Code,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.config.Backend.Reset(r.Context(), id)
	switch {
	case err == nil:
	case editerr.IsValidation(err):
		writeError(w, http.StatusBadRequest, editerr.ShortMessage(err))
		return
	case editerr.IsNotFound(err):
		writeError(w, http.StatusNotFound, editerr.ShortMessage(err))
		return
	default:
		logging.Error("Failed to reset component", zap.String("component_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, storeapi.ErrorResponse{
			Error:   "Failed to reset component.",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, storeapi.ResetResponse{
		ID:      rec.ID,
		Message: "Component '" + rec.ID + "' successfully reset to original.",
		Code:    rec.Code,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req storeapi.CreateRequest
	if err := decodeBody(r, &req); err != nil || req.Code == nil {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	rec, err := s.config.Backend.Create(r.Context(), req.ID, *req.Code)
	if err != nil {
		if editerr.IsValidation(err) {
			writeError(w, http.StatusBadRequest, editerr.ShortMessage(err))
			return
		}
		logging.Error("Failed to create component", zap.String("component_id", req.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create component")
		return
	}
	logging.Info("Component created", zap.String("component_id", rec.ID))
	writeJSON(w, http.StatusCreated, storeapi.Component{ID: rec.ID, Code: rec.Code})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	s.bridge.Serve(w, r, chi.URLParam(r, "id"))
}
