package snapshot

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rancher-dashboard/config"
	"rancher-dashboard/utils"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8050", "http://localhost:8050/?metric=farmers_feed_per_voter"},
		{"http://localhost:8050/", "http://localhost:8050/?metric=farmers_feed_per_voter"},
		{" https://dash.example.org/rancher/ ", "https://dash.example.org/rancher/?metric=farmers_feed_per_voter"},
	}

	for _, tt := range tests {
		got, err := pageURL(tt.base, "farmers_feed_per_voter")
		if err != nil {
			t.Errorf("pageURL(%q): unexpected error %v", tt.base, err)
			continue
		}
		if got != tt.want {
			t.Errorf("pageURL(%q) = %q; want %q", tt.base, got, tt.want)
		}
	}
}

func TestPageURLRejectsRelative(t *testing.T) {
	for _, base := range []string{"", "localhost", "/dashboard"} {
		if _, err := pageURL(base, "x"); err == nil {
			t.Errorf("pageURL(%q): expected error", base)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := outputPath("out", "Farmers_in_animal_ag_feed")
	want := filepath.Join("out", "Farmers_in_animal_ag_feed.png")
	if got != want {
		t.Errorf("outputPath = %q; want %q", got, want)
	}
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	if got := findChromeBinary("/custom/chrome"); got != "/custom/chrome" {
		t.Errorf("findChromeBinary = %q; want configured path", got)
	}
}

func newTestSnapshotter() *Snapshotter {
	cfg := &config.Config{SnapshotDir: "out", SnapshotConcurrency: 2, FetchRetries: 1}
	return New(cfg, utils.NewDiscardLogger())
}

func TestCaptureAllCapturesEveryMetric(t *testing.T) {
	s := newTestSnapshotter()
	keys := metricKeys()

	var mu sync.Mutex
	seen := make(map[string]int)
	capture := func(key string) (string, error) {
		mu.Lock()
		seen[key]++
		mu.Unlock()
		return outputPath("out", key), nil
	}

	written, err := s.captureAll(keys, capture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != len(keys) {
		t.Errorf("written: got %d, want %d", len(written), len(keys))
	}
	for _, key := range keys {
		if seen[key] != 1 {
			t.Errorf("%s captured %d times, want 1", key, seen[key])
		}
	}
}

func TestCaptureAllReportsFailures(t *testing.T) {
	s := newTestSnapshotter()
	keys := []string{"a", "b", "c"}

	written, err := s.captureAll(keys, func(key string) (string, error) {
		if key == "a" || key == "c" {
			return "", errors.New("tab crashed")
		}
		return outputPath("out", key), nil
	})

	if err == nil || !strings.Contains(err.Error(), "2 metric(s) failed: a, c") {
		t.Errorf("error: got %v", err)
	}
	if len(written) != 1 || written[0] != outputPath("out", "b") {
		t.Errorf("written: got %v", written)
	}
}

func TestCaptureAllRunsAgain(t *testing.T) {
	s := newTestSnapshotter()
	keys := []string{"a", "b"}

	fail := true
	capture := func(key string) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return outputPath("out", key), nil
	}

	if _, err := s.captureAll(keys, capture); err == nil {
		t.Fatal("first run: expected an error")
	}

	fail = false
	written, err := s.captureAll(keys, capture)
	if err != nil {
		t.Fatalf("second run: unexpected error %v", err)
	}
	if len(written) != 2 {
		t.Errorf("second run written: got %d, want 2", len(written))
	}
}
