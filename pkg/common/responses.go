package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// MaxRequestBodySize bounds JSON request bodies
const MaxRequestBodySize = 4 << 20

// RespondJSON sends data as a JSON response
func RespondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// ParseJSONBody parses a JSON request body with a size limit
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
