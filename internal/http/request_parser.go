// Package http serves the razhodi JSON API.
//
// This file implements utilities for reading path values, query parameters,
// JSON bodies and CSV uploads.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"razhodi/internal/core"
)

// maxJSONBodyBytes bounds every JSON request body.
const maxJSONBodyBytes = 1 << 20

// queryYear reads the year query parameter, defaulting to the current year.
// Range checks are left to the services.
func queryYear(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return time.Now().Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("year must be a number, got %q", v)
	}
	return y, nil
}

// pathMonth reads the {month} path value.
func pathMonth(r *http.Request) (int, error) {
	v := r.PathValue("month")
	m, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("month must be a number, got %q", v)
	}
	return m, nil
}

// decodeJSON reads one JSON value from the body into v. Unknown fields,
// trailing data and oversized bodies are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		if core.IsValidationError(err) {
			return err
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON value")
	}
	return nil
}

// readUpload returns the text of the multipart "file" field. The whole body
// is capped at maxBytes.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, error) {
	if r.ContentLength > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", errTooLarge, maxBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("%w: limit is %d bytes", errTooLarge, maxBytes)
		}
		return "", badRequest("expected a multipart form with a file field: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	f, _, err := r.FormFile("file")
	if err != nil {
		return "", badRequest("missing file field")
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return "", badRequest("read upload: %v", err)
	}
	return buf.String(), nil
}

// amountValue accepts an amount as a JSON number or as a user-typed string
// such as "1 234,50".
type amountValue float64

func (a *amountValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = amountValue(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = amountValue(v)
	return nil
}
