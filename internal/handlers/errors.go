package handlers

import (
	"net/http"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// handleServiceError writes the response for any error returned by the service.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Service error", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusInternalServerError, "internal server error")
}

func handleBusinessError(w http.ResponseWriter, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Business error",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithPayload(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
