package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBodyBytes bounds every JSON body the quote endpoints accept.
const maxRequestBodyBytes = 16 << 10

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeOptionalJSON decodes r's body into v, treating an empty body as no input.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// limitBody caps r's body at maxRequestBodyBytes.
func limitBody(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	}
}

// readJSON decodes a size-limited body into v. On failure it writes 413 for
// an oversize body or 400 otherwise and returns false.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	limitBody(w, r)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid request body", http.StatusBadRequest)
}
