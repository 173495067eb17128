package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"estate-discovery/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeServiceError отображает доменные ошибки на HTTP статусы.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, "topic_not_found", "topic not found")
	case errors.Is(err, domain.ErrContentNotFound):
		writeError(w, http.StatusNotFound, "content_not_found", "content not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error().Err(err).Str("request_id", RequestID(r)).Msg("api: store unavailable")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "content store is unavailable")
	default:
		log.Error().Err(err).Str("request_id", RequestID(r)).Msg("api: internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
