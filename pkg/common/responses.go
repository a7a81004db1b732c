package common

import (
	"encoding/json"
	"net"
	"net/http"

	apperrors "sysmap-backend/pkg/errors"
)

// ErrorResponse is the body returned for every failed request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError sends an error response with the given status and message
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondAppError maps an error to its HTTP status and sends it.
// Unclassified errors become a generic 500 so transport details never
// reach the client.
func RespondAppError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	RespondJSON(w, appErr.HTTPStatus, ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Type),
		Details: appErr.Details,
	})
}

// ParseJSONBody parses a JSON request body with a size limit
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}

	return nil
}

// ExtractClientIP returns the caller identity used for rate limiting.
// chi's RealIP middleware already rewrote RemoteAddr from the
// forwarding headers when present, in which case there is no port to
// strip and the address may be a bare IPv6 literal.
func ExtractClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
