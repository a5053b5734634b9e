package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pricewatch/internal/config"
	"pricewatch/internal/coordinator"
	"pricewatch/internal/fetcher"
)

const priceBody = `{"bitcoin":{"usd":65497.0,"eur":60123.5,"gbp":51000.0,"jpy":9800000.0}}`

func newPriceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newFlagServer serves an SVG for every key except those listed in missing
func newFlagServer(t *testing.T, missing ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".svg")
		for _, m := range missing {
			if key == m {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(`<svg id="` + key + `"/>`))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testConfig(priceURL, flagURL string) *config.Config {
	return &config.Config{
		PriceBaseURL:       priceURL,
		FlagBaseURL:        flagURL,
		Asset:              "bitcoin",
		HTTPTimeout:        5 * time.Second,
		UserAgent:          "pricewatch-test",
		AutoRefreshEnabled: false,
		Theme:              config.ThemeNord,
		LogLevel:           "error",
	}
}

func startPipeline(t *testing.T, cfg *config.Config) *coordinator.Coordinator {
	t.Helper()
	client := fetcher.NewHTTPClient(fetcher.ClientOptions{Timeout: cfg.HTTPTimeout, UserAgent: cfg.UserAgent})
	t.Cleanup(func() { client.Close() })

	coord := newCoordinator(cfg, client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return coord
}

func waitSettled(t *testing.T, coord *coordinator.Coordinator, cycle uint64) coordinator.ViewState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := coord.Snapshot()
		if s.Cycle >= cycle && s.Status != coordinator.StatusLoading {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cycle %d did not settle, last state %+v", cycle, coord.Snapshot())
	return coordinator.ViewState{}
}

func quotePrice(s coordinator.ViewState, currency string) float64 {
	for _, q := range s.Quotes {
		if q.Entry.Currency == currency {
			return q.Price
		}
	}
	return -1
}

// TestIntegration_FullCycle runs the whole pipeline against mock HTTP servers
func TestIntegration_FullCycle(t *testing.T) {
	prices := newPriceServer(t, http.StatusOK, priceBody)
	flags, requests := newFlagServer(t)

	coord := startPipeline(t, testConfig(prices.URL, flags.URL))
	s := waitSettled(t, coord, 1)

	if s.Status != coordinator.StatusReady {
		t.Fatalf("Status = %v (%s), want ready", s.Status, s.Message)
	}
	if s.PriceUSD != 65497.0 {
		t.Errorf("PriceUSD = %v, want 65497", s.PriceUSD)
	}
	if len(s.Quotes) != 45 {
		t.Errorf("len(Quotes) = %d, want 45", len(s.Quotes))
	}
	if got := quotePrice(s, "jpy"); got != 9800000.0 {
		t.Errorf("jpy = %v, want 9800000", got)
	}
	if got := quotePrice(s, "aed"); got != 0 {
		t.Errorf("aed = %v, want 0 for a currency missing from the response", got)
	}
	if len(s.Resources) != 45 {
		t.Errorf("len(Resources) = %d, want 45", len(s.Resources))
	}
	if got := string(s.Resources["jp"]); got != `<svg id="jp"/>` {
		t.Errorf("Resources[jp] = %q", got)
	}
	if n := requests.Load(); n != 45 {
		t.Errorf("flag requests = %d, want 45", n)
	}
}

// TestIntegration_PartialFlagFailures tests that missing flags do not fail the cycle
func TestIntegration_PartialFlagFailures(t *testing.T) {
	prices := newPriceServer(t, http.StatusOK, priceBody)
	flags, _ := newFlagServer(t, "jp", "gb", "us")

	coord := startPipeline(t, testConfig(prices.URL, flags.URL))
	s := waitSettled(t, coord, 1)

	if s.Status != coordinator.StatusReady {
		t.Fatalf("Status = %v (%s), want ready", s.Status, s.Message)
	}
	if len(s.Resources) != 42 {
		t.Errorf("len(Resources) = %d, want 42", len(s.Resources))
	}
	for _, key := range []string{"jp", "gb", "us"} {
		if _, ok := s.Resources[key]; ok {
			t.Errorf("Resources contains failed key %q", key)
		}
	}
}

// TestIntegration_PriceFailure tests that a pricing outage settles in Error
func TestIntegration_PriceFailure(t *testing.T) {
	prices := newPriceServer(t, http.StatusInternalServerError, `{"error":"down"}`)
	flags, _ := newFlagServer(t)

	coord := startPipeline(t, testConfig(prices.URL, flags.URL))
	s := waitSettled(t, coord, 1)

	if s.Status != coordinator.StatusError {
		t.Fatalf("Status = %v, want error", s.Status)
	}
	if !strings.HasPrefix(s.Message, "failed to fetch prices: ") {
		t.Errorf("Message = %q", s.Message)
	}
	if len(s.Resources) != 45 {
		t.Errorf("len(Resources) = %d, want flags kept despite the price failure", len(s.Resources))
	}
}

// TestIntegration_RefetchRecovers tests a manual refetch after an outage
func TestIntegration_RefetchRecovers(t *testing.T) {
	var healthy atomic.Bool
	prices := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(priceBody))
	}))
	defer prices.Close()
	flags, _ := newFlagServer(t)

	coord := startPipeline(t, testConfig(prices.URL, flags.URL))
	if s := waitSettled(t, coord, 1); s.Status != coordinator.StatusError {
		t.Fatalf("first cycle Status = %v, want error", s.Status)
	}

	healthy.Store(true)
	coord.Refetch()

	s := waitSettled(t, coord, 2)
	if s.Status != coordinator.StatusReady || s.Message != "" {
		t.Errorf("Status = %v, Message = %q, want ready with no message", s.Status, s.Message)
	}
	if s.PriceUSD != 65497.0 {
		t.Errorf("PriceUSD = %v, want 65497", s.PriceUSD)
	}
}

// TestIntegration_Once tests the single-cycle command end to end
func TestIntegration_Once(t *testing.T) {
	prices := newPriceServer(t, http.StatusOK, priceBody)
	flags, _ := newFlagServer(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), testConfig(prices.URL, flags.URL), runOptions{once: true}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"cycle 1: ready\n", "USD: $65497.00\n", "GBP: 51000.00\n", "AED: n/a\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestIntegration_OnceFailure tests that a failed cycle is reported as an error
func TestIntegration_OnceFailure(t *testing.T) {
	prices := newPriceServer(t, http.StatusTooManyRequests, `{}`)
	flags, _ := newFlagServer(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), testConfig(prices.URL, flags.URL), runOptions{once: true}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error = %q, want the rate limit cause", err.Error())
	}
	if !strings.Contains(stdout.String(), "ERROR - failed to fetch prices") {
		t.Errorf("output missing the error line:\n%s", stdout.String())
	}
}

// TestIntegration_RootCommand tests flag parsing through the cobra command
func TestIntegration_RootCommand(t *testing.T) {
	prices := newPriceServer(t, http.StatusOK, `{"ethereum":{"usd":3100.5,"eur":2900.0}}`)
	flags, _ := newFlagServer(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{
		"--once",
		"--price-url", prices.URL,
		"--flag-url", flags.URL,
		"--asset", "ethereum",
		"--log-level", "error",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned unexpected error: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "USD: $3100.50\n") {
		t.Errorf("output missing the reference price:\n%s", stdout.String())
	}
}

// TestIntegration_ContextTimeout tests that a hanging upstream does not block shutdown
func TestIntegration_ContextTimeout(t *testing.T) {
	hanging := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hanging.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	start := time.Now()
	err := run(ctx, testConfig(hanging.URL, hanging.URL), runOptions{once: true}, &stdout, &stderr)
	duration := time.Since(start)

	if err == nil {
		t.Fatal("run() expected error, got nil")
	}
	if duration > time.Second {
		t.Errorf("run() took %v after the context expired", duration)
	}
}
