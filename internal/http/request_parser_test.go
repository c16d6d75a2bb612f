package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"razhodi/internal/core"
)

func TestQueryYear(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"explicit", "?year=2023", 2023, false},
		{"padded", "?year=%202024%20", 2024, false},
		{"default", "", time.Now().Year(), false},
		{"not a number", "?year=abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			got, err := queryYear(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Fatalf("err=%v is not a bad request", err)
			}
			if got != tt.want {
				t.Fatalf("year=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name   string      `json:"name"`
		Amount amountValue `json:"amount"`
	}
	tests := []struct {
		name    string
		body    string
		want    payload
		wantErr error
	}{
		{"number amount", `{"name":"Ток","amount":12.5}`, payload{"Ток", 12.5}, nil},
		{"string amount", `{"name":"Ток","amount":"1 200,75"}`, payload{"Ток", 1200.75}, nil},
		{"bad string amount", `{"amount":"12a"}`, payload{}, core.ErrInvalidAmount},
		{"empty body", ``, payload{}, errBadRequest},
		{"unknown field", `{"nme":"x"}`, payload{}, errBadRequest},
		{"trailing value", `{"name":"a"} {"name":"b"}`, payload{}, errBadRequest},
		{"too large", `{"name":"` + strings.Repeat("a", maxJSONBodyBytes) + `"}`, payload{}, errTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			var got payload
			err := decodeJSON(httptest.NewRecorder(), r, &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got=%+v want=%+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  Ток  ":        "Ток",
		"Во\x00да":       "Вода",
		"ред\tс таб":     "ред\tс таб",
		"\x1b[31mчервен": "[31mчервен",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q)=%q want %q", in, got, want)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	if got := contentDisposition("flat_2024.csv"); got != `attachment; filename=flat_2024.csv` {
		t.Errorf("ascii name: %q", got)
	}
	got := contentDisposition("Младост_2024.csv")
	if !strings.HasPrefix(got, "attachment; filename*=utf-8''") || !strings.HasSuffix(got, "_2024.csv") {
		t.Errorf("cyrillic name: %q", got)
	}
}
