package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pinroom/internal/domain"
)

// maxJSONBody caps JSON request bodies; uploads go through multipart instead
const maxJSONBody = 1 << 20

// ParseJSON decodes exactly one JSON object from the request body into dest. Malformed
// bodies come back as domain validation errors; an oversized body keeps its
// *http.MaxBytesError so callers can answer 413.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body: %w", err)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		default:
			return fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
		}
	}
	if decoder.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", domain.ErrValidation)
	}

	return nil
}
