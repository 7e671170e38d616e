package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/helicode/ambassador-console-go/internal/domain"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePage(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 0, false
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return p, true
}

// handleStoreError maps store and gateway errors to HTTP responses.
// Upstream API errors keep their status code; connectivity failures
// surface as a bad gateway.
func handleStoreError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var apiErr *domain.ErrAPI
	var transportErr *domain.ErrTransport

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("field", validation.Field), zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &apiErr):
		logger.Debug("upstream API error", zap.Int("status", apiErr.StatusCode), zap.String("message", apiErr.Message))
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, domain.ErrorMessage(err))
	case errors.As(err, &transportErr):
		logger.Error("upstream unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, domain.ErrorMessage(err))
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
