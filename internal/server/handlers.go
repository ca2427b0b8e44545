package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hyperjump/ruiji/internal/models"
	"go.uber.org/zap"
)

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (*models.QueryRequest, bool) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := req.Validate(s.config.Search.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

// retrieve loads the dataset on first use, then searches.
func (s *Server) retrieve(r *http.Request, req *models.QueryRequest) ([]models.SimilarExample, error) {
	ctx := r.Context()
	if s.indexer != nil && s.config.Dataset.Path != "" {
		if err := s.retriever.EnsureLoaded(ctx, s.indexer.LazyLoader(s.config.Dataset.Path)); err != nil {
			return nil, err
		}
	}
	results, err := s.retriever.Search(ctx, req.Query, req.K)
	if err != nil {
		return nil, err
	}
	return models.ToSimilarExamples(results), nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	s.logger.Debug("query request", zap.Int("k", req.K))
	examples, err := s.retrieve(r, req)
	if err != nil {
		s.respondErr(w, "query", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.QueryResponse{
		Response:        s.counselor.Respond(r.Context(), req.Query, examples),
		SimilarExamples: examples,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	start := time.Now()
	examples, err := s.retrieve(r, req)
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:           req.Query,
		SimilarExamples: examples,
		QueryTime:       time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleLoadRecords(w http.ResponseWriter, r *http.Request) {
	var records []models.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: expected an array of records")
		return
	}
	if len(records) == 0 {
		s.respondError(w, http.StatusBadRequest, "no records")
		return
	}
	s.logger.Debug("load records request", zap.Int("records", len(records)))
	n, err := s.retriever.Load(r.Context(), records)
	if err != nil {
		s.respondErr(w, "load", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, models.LoadResponse{Loaded: n})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil || s.config.Dataset.Path == "" {
		s.respondError(w, http.StatusNotImplemented, "no dataset configured")
		return
	}
	report, err := s.indexer.Reload(r.Context(), s.config.Dataset.Path)
	if err != nil && report.Loaded == 0 {
		s.respondErr(w, "reload", err)
		return
	}
	if err != nil {
		s.logger.Warn("reload partially failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	size, err := s.retriever.Size(r.Context())
	if err != nil {
		s.respondErr(w, "status", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.StatusResponse{
		Status:     "ok",
		Backend:    s.retriever.BackendType(),
		Ready:      s.retriever.Ready(),
		Size:       size,
		Dimensions: s.retriever.Dimensions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrSchema), errors.Is(err, models.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrEmptyBatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
