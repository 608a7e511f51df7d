package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clipquery/clipquery/internal/analytics"
	"github.com/clipquery/clipquery/internal/query"
)

const maxQueryBodyBytes = 64 << 10

type analyzeRequest struct {
	Query string `json:"query"`
}

type analyzeResponse struct {
	Result int64 `json:"result"`
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req analyzeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return "", false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return "", false
	}
	return req.Query, true
}

func handleAnalyze(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Analyzer == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ANALYZE_NOT_CONFIGURED", "analytics service is not configured", false, nil)
		return
	}
	question, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := deps.Analyzer.Analyze(r.Context(), question)
	if err != nil {
		writeAnalyzeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Result: answer.Result})
}

func writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var execErr *query.ExecutionError
	switch {
	case errors.Is(err, analytics.ErrEmptyQuery):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
	case errors.Is(err, query.ErrServiceUnavailable):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "database connection is unavailable", true, nil)
	case errors.As(err, &execErr):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "sql execution failed: "+execErr.Message, false, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "failed to answer query", false, map[string]any{"details": err.Error()})
	}
}
