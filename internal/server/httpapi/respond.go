package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
)

// apiResponse is the single envelope every endpoint answers with.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeData answers with a success envelope.
func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, apiResponse{StatusCode: status, Data: data, Message: message, Success: true})
}

// writeMessage answers with a failure envelope carrying msg verbatim.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{StatusCode: status, Message: msg})
}

// writeError maps a service error onto its status and caller-safe message.
func writeError(w http.ResponseWriter, err error) {
	writeMessage(w, statusFor(err), common.PublicMessage(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
