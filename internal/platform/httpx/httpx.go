// Package httpx holds the JSON request and response helpers shared by the HTTP handlers.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"crm-campaigns/backend/internal/platform/validate"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrBadRequest wraps body errors that are the client's fault (malformed JSON, too large).
var ErrBadRequest = errors.New("bad request")

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("httpx: encode response: %v", err)
		}
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// InternalError logs err with its context and writes a generic 500.
func InternalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads the request body, validates it against schema and decodes it into dst.
// Validation failures are returned as *validate.Error; unreadable bodies wrap ErrBadRequest.
func Decode(r *http.Request, schema validate.Schema, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: invalid JSON body", ErrBadRequest)
	}
	if err := validate.Document(schema, doc); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// DecodeError writes the 400 for an error returned by Decode, or a 500 for anything else.
func DecodeError(w http.ResponseWriter, op string, err error) {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		Error(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrBadRequest):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		InternalError(w, op, err)
	}
}
