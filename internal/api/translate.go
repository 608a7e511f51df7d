package api

import (
	"net/http"

	"github.com/clipquery/clipquery/internal/nl2sql"
)

type translateResponse struct {
	SQL      string `json:"sql"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// handleTranslate runs generation only; the statement is not executed.
func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Generator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}
	question, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	generation := deps.Generator.Generate(r.Context(), question)
	writeJSON(w, http.StatusOK, translationResponse(generation))
}

func translationResponse(generation nl2sql.Generation) translateResponse {
	return translateResponse{
		SQL:      generation.SQL,
		Fallback: generation.Fallback,
		Reason:   generation.Reason,
		Provider: generation.Provider,
		Model:    generation.Model,
	}
}
