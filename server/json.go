package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type jMap map[string]any

func writeJson(w http.ResponseWriter, status int, body jMap) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

const maxJsonBody = 1 << 20

// readJson decodes the request body into v. An empty body leaves v untouched.
func readJson(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJsonBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	return PublicError{http.StatusBadRequest, "Malformed JSON body: " + err.Error()}
}
