package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/latsearch/internal/corpus"
	"github.com/hyperjump/latsearch/internal/extract"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/models"
	"github.com/hyperjump/latsearch/internal/storage"
)

// defaultQueryLabel names a query sent without a label.
const defaultQueryLabel = "query"

type searchRequest struct {
	Label  string        `json:"label"`
	Vector models.Vector `json:"vector"`
	Metric string        `json:"metric"`
	P      *float64      `json:"p,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" {
		req.Label = defaultQueryLabel
	}
	if req.Metric == "" {
		req.Metric = s.config.Search.Metric
	}
	p := s.config.Search.PNorm
	if req.P != nil {
		p = *req.P
	}
	s.logger.Debug("search request", zap.String("label", req.Label), zap.String("metric", req.Metric), zap.Int("dim", req.Vector.Dim()))

	// Resolve before touching the corpus so a bad metric never costs a directory scan.
	spec, err := metric.Resolve(req.Metric, p)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	c, err := s.loadCorpus(r.Context())
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	res, err := s.searcher.Search(r.Context(), models.Query{Label: req.Label, Vector: req.Vector}, spec, c)
	if err != nil {
		s.logger.Warn("search failed", zap.String("label", req.Label), zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	if s.storage != nil {
		if _, err := s.storage.SaveResult(r.Context(), res); err != nil {
			s.logger.Warn("failed to record result", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	c, err := s.loadCorpus(r.Context())
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"labels": c.Labels()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"metrics": metric.Names()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := s.storage.ListResults(r.Context(), limit)
	if err != nil {
		s.logger.Error("history: list results failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.HistoryRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": records})
}

func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.storage.GetResult(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("history: get result failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"corpus_directory": s.config.Corpus.Directory,
		"metric":           s.config.Search.Metric,
		"workers":          s.config.Search.Workers,
		"formats":          extract.SupportedExtensions(),
	}
	if c, err := s.loadCorpus(r.Context()); err == nil {
		resp["entries"] = c.Len()
		resp["dimensions"] = c.Dimensions()
	} else {
		resp["corpus_error"] = err.Error()
	}
	if s.storage != nil {
		count, err := s.storage.CountResults(r.Context())
		if err != nil {
			s.logger.Error("status: count results failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["results"] = count
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(s.config.Storage.DatabasePath)...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	c, err := corpus.Load(ctx, s.config.Corpus.Directory,
		corpus.WithExtensions(s.config.Corpus.Extensions),
		corpus.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.ObserveCorpus(c.Len())
	}
	return c, nil
}

// errorStatus maps a search failure to an HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidMetric),
		errors.Is(err, models.ErrMalformedVector),
		errors.Is(err, models.ErrDimensionMismatch),
		errors.Is(err, models.ErrNonBinaryVector):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCorpusEmpty):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUndefinedDistance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
