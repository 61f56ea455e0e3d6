package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abrsearch/core/internal/core/domain"
)

// writeError maps an error to the HTTP status codes of spec §7 and
// writes the {status:"error", message} envelope. Non-operational
// errors are logged with detail but returned to the client as the
// literal "Internal server error", per the operational/unexpected
// split in domain.OperationalError.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func classify(err error) (int, string) {
	var opErr *domain.OperationalError
	if errors.As(err, &opErr) {
		status := statusForKind(opErr.Kind)
		if opErr.Operational {
			return status, opErr.Message
		}
		return http.StatusInternalServerError, "Internal server error"
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotImplemented:
		return http.StatusNotImplemented
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindTransient:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
