package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeEmptySelection,
		errors.ErrCodeInvalidSelection,
		errors.ErrCodeMalformedData,
		errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidPatternType,
		errors.ErrCodeInvalidColor,
		errors.ErrCodeInvalidKey,
		errors.ErrCodeInvalidDiagram:
		return http.StatusBadRequest
	case errors.ErrCodeUnknownAnnotation, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as JSON with the given status. A nil v writes only the
// status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorBody.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	body := ErrorBody{Code: code, Message: errors.UserMessage(err)}
	if code == "" {
		body = ErrorBody{Code: errors.ErrCodeInternal, Message: "internal error"}
	}
	WriteJSON(w, StatusCode(body.Code), body)
}

// DecodeJSON decodes the request body into v. Empty bodies, unknown fields,
// trailing data and oversized bodies are ErrCodeInvalidInput errors.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body has trailing data")
	}
	if dec.InputOffset() > MaxBodyBytes {
		return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", MaxBodyBytes)
	}
	return nil
}
