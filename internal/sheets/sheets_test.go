package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecordsMapsHeaderAndPadsShortRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[["ID","First Name","Last Name"],["1","Hanako","Sato"],["2","Taro"]]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.Client(), 600, zerolog.Nop()).WithBaseURL(srv.URL)
	rows, err := c.Records(context.Background(), "Users")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["First Name"] != "Hanako" {
		t.Fatalf("expected Hanako, got %q", rows[0]["First Name"])
	}
	if got, ok := rows[1]["Last Name"]; !ok || got != "" {
		t.Fatalf("expected padded empty last name, got %q (present=%v)", got, ok)
	}
}

func TestValuesRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.Client(), 600, zerolog.Nop()).WithBaseURL(srv.URL)
	_, err := c.Records(context.Background(), "Deals")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestValuesServerErrorIsNotRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.Client(), 600, zerolog.Nop()).WithBaseURL(srv.URL)
	_, err := c.Records(context.Background(), "Deals")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("500 must not map to ErrRateLimited: %v", err)
	}
}

func TestRangeUsesBangSyntax(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"values":[["1","アポ取得"],["2","初回商談"]]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.Client(), 600, zerolog.Nop()).WithBaseURL(srv.URL)
	rows, err := c.Range(context.Background(), "OtherParams", "A2:B12")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := "/spreadsheets/test-key/values/OtherParams!A2:B12"
	if gotPath != want {
		t.Fatalf("expected path %q, got %q", want, gotPath)
	}
}
