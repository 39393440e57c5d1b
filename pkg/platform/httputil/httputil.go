// Package httputil centralizes JSON encoding and error mapping for HTTP
// handlers so every endpoint surfaces coded errors the same way.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "vigil/pkg/domain-errors"
)

// errorBody is the wire shape for all error responses.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded domain error onto an HTTP status and JSON body.
// Internal errors suppress the description so storage details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case dErrors.CodeConflict:
		status = http.StatusConflict
	}

	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, body)
}

// Decode parses the request body into T, returning a coded error on malformed
// input. Unknown fields are rejected to keep the contract strict.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body")
	}
	return v, nil
}
