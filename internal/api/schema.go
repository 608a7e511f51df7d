package api

import "net/http"

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if len(deps.Schema.Tables) == 0 {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema descriptor is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tables":   deps.Schema.Tables,
		"relation": deps.Schema.Relation.String(),
		"ddl":      deps.Schema.DDL(),
	})
}
