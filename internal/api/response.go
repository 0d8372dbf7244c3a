package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/OneForces/banking-mvp/internal/obclient"
	"github.com/OneForces/banking-mvp/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses. Upstream failures
// surface as 502 with the already-truncated upstream message so the UI can
// show it.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		apiErr   *obclient.APIError
		tokenErr *obclient.TokenError
		shapeErr *obclient.ShapeError
	)

	switch {
	case errors.As(err, &apiErr), errors.As(err, &tokenErr), errors.As(err, &shapeErr):
		logger.Warn("upstream failure", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrApplicationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}
