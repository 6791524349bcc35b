package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rancher-dashboard/models"
)

const lookupCSV = `code,state,category,total exports
AL,Alabama,state,1390.63
IA,Iowa,state,11273.76
TX,Texas,state,6292.98
`

func TestParseStateCodes(t *testing.T) {
	codes, err := parseStateCodes(strings.NewReader(lookupCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.StateCode{
		{State: "Alabama", Code: "AL"},
		{State: "Iowa", Code: "IA"},
		{State: "Texas", Code: "TX"},
	}
	if len(codes) != len(want) {
		t.Fatalf("codes: got %d, want %d", len(codes), len(want))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("code %d: got %+v, want %+v", i, codes[i], want[i])
		}
	}
}

func TestParseStateCodesMissingColumns(t *testing.T) {
	if _, err := parseStateCodes(strings.NewReader("abbr,name\nIA,Iowa\n")); err == nil {
		t.Error("expected an error when code/state columns are absent")
	}
}

func TestStateCodeFetcherHTTPRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(lookupCSV))
	}))
	defer srv.Close()

	f := NewStateCodeFetcher(srv.URL, 3, 5*time.Second, newTestLogger())
	f.retry.BaseDelay = time.Millisecond

	codes, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 3 {
		t.Errorf("codes: got %d, want 3", len(codes))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("requests: got %d, want 2", got)
	}
}

func TestStateCodeFetcherHTTPGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewStateCodeFetcher(srv.URL, 2, 5*time.Second, newTestLogger())
	f.retry.BaseDelay = time.Millisecond

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("expected an error after exhausting retries")
	}
}

func TestStateCodeFetcherLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	if err := os.WriteFile(path, []byte(lookupCSV), 0o644); err != nil {
		t.Fatalf("write lookup: %v", err)
	}

	codes, err := NewStateCodeFetcher(path, 1, time.Second, newTestLogger()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 3 || codes[1].Code != "IA" {
		t.Errorf("codes: got %+v", codes)
	}
}

func TestCSVWriterWriteTable(t *testing.T) {
	v := 80.0
	table := &models.DisplayTable{
		Header: [3]string{"State", "State Code", "Farmers in 2012"},
		Rows: []models.TableRow{
			{State: "Texas", Code: "TX", Value: &v},
			{State: "Nebraska", Code: "NE"},
		},
	}

	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).WriteTable(table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "State,State Code,Farmers in 2012\nTexas,TX,80\nNebraska,NE,N/A\n"
	if buf.String() != want {
		t.Errorf("csv:\ngot  %q\nwant %q", buf.String(), want)
	}
}
