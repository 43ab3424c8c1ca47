package handlers

import (
	"encoding/json"
	"net/http"
	"taskManager/internal/logger"

	"go.uber.org/zap"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func responseWithJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("HTTP: Failed to encode response", zap.Error(err))
	}
}

func responseWithPayload(w http.ResponseWriter, code int, payload ...Payload) {
	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		storage[pl.Key] = pl.Payload
	}
	responseWithJSON(w, code, storage)
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithPayload(w, code,
		toPayload("error", http.StatusText(code)),
		toPayload("message", message),
	)
}
