package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"places_ranker/internal/adapters/gmaps"
	httpserver "places_ranker/internal/adapters/http_server"
	"places_ranker/internal/domain"
	"places_ranker/internal/report"
)

type fakeRanker struct {
	out   domain.Ranking
	err   error
	terms []string
}

func (f *fakeRanker) Rank(ctx context.Context, term string) (domain.Ranking, error) {
	f.terms = append(f.terms, term)
	if f.err != nil {
		return domain.Ranking{}, f.err
	}
	r := f.out
	r.Term = term
	return r, nil
}

type blockingRanker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRanker) Rank(ctx context.Context, term string) (domain.Ranking, error) {
	b.started <- struct{}{}
	<-b.release
	return domain.Ranking{Term: term}, nil
}

func ptr[T any](v T) *T { return &v }

func newServer(r httpserver.Ranker, sem *semaphore.Weighted) http.Handler {
	s := httpserver.New(zerolog.Nop(), 5*time.Second)
	s.MountHandlers(&httpserver.Handlers{R: r, Sem: sem, Table: report.Table{NameWidth: 20}})
	return s.Mux()
}

func sample() domain.Ranking {
	return domain.Ranking{
		RunID: "run-1",
		Prior: domain.Prior{Rating: 4.2, Weight: 25},
		Businesses: []domain.Business{
			{PlaceID: ptr("p1"), Name: "Best Beans", Rating: ptr(4.8), NumRatings: ptr(90), BayesianAverage: ptr(4.7), Distance: ptr("2 mi"), TravelTime: ptr("10 mins"), TravelCost: ptr(11.0)},
			{Name: "Mystery Cafe"},
		},
	}
}

func TestHealthz(t *testing.T) {
	h := newServer(&fakeRanker{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}
}

func TestGetRanking_JSON(t *testing.T) {
	fr := &fakeRanker{out: sample()}
	h := newServer(fr, semaphore.NewWeighted(2))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=+coffee+", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("ETag") == "" || rr.Header().Get("X-Run-ID") != "run-1" {
		t.Fatalf("missing headers: %v", rr.Header())
	}
	if len(fr.terms) != 1 || fr.terms[0] != "coffee" {
		t.Fatalf("term not trimmed: %q", fr.terms)
	}

	var got struct {
		Term       string `json:"term"`
		Prior      struct{ Rating, Weight float64 }
		Businesses []map[string]any `json:"businesses"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Term != "coffee" || got.Prior.Weight != 25 || len(got.Businesses) != 2 {
		t.Fatalf("unexpected body: %+v", got)
	}
	first := got.Businesses[0]
	if first["rank"] != float64(1) || first["travel_cost"] != 11.0 {
		t.Fatalf("unexpected first business: %v", first)
	}
	second := got.Businesses[1]
	if v, ok := second["bayesian_average"]; !ok || v != nil {
		t.Fatalf("absent score must be null, got %v", second)
	}
}

func TestGetRanking_ETagIgnoresRunID(t *testing.T) {
	fr := &fakeRanker{out: sample()}
	h := newServer(fr, nil)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	// same content from a different run
	fr.out.RunID = "run-2"
	again := httptest.NewRecorder()
	h.ServeHTTP(again, httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil))
	if got := again.Header().Get("ETag"); got != etag {
		t.Fatalf("ETag changed with run id: %q vs %q", got, etag)
	}
	if !strings.Contains(again.Body.String(), `"run_id":"run-2"`) {
		t.Fatalf("body must still carry the run id: %s", again.Body.String())
	}

	req := httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	h.ServeHTTP(cached, req)
	if cached.Code != http.StatusNotModified || cached.Body.Len() != 0 {
		t.Fatalf("want empty 304, got %d %q", cached.Code, cached.Body.String())
	}
	if cached.Header().Get("ETag") != etag {
		t.Fatalf("304 must repeat the ETag")
	}

	// a different ranking gets a different tag
	fr.out.Businesses = fr.out.Businesses[:1]
	changed := httptest.NewRecorder()
	h.ServeHTTP(changed, httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil))
	if changed.Header().Get("ETag") == etag {
		t.Fatalf("ETag must change with content")
	}
}

func TestTimeout_Status(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	h := httpserver.Timeout(10 * time.Millisecond)(slow)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/slow", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rr.Code)
	}
	if rr.Body.String() != httpserver.TimeoutBody {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestGetRanking_Table(t *testing.T) {
	h := newServer(&fakeRanker{out: sample()}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=coffee&format=table", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type %q", rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "Prior Rating: 4.20\n") || !strings.Contains(body, "Mystery Cafe") {
		t.Fatalf("unexpected table:\n%s", body)
	}
	if !strings.Contains(body, report.Placeholder) {
		t.Fatalf("expected placeholders in table")
	}
}

func TestGetRanking_CSV(t *testing.T) {
	h := newServer(&fakeRanker{out: sample()}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=coffee&format=csv", nil))
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "rank,place_id,") {
		t.Fatalf("unexpected csv response %d: %q", rr.Code, rr.Body.String())
	}
}

func TestGetRanking_Errors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		err    error
		status int
	}{
		{"missing term", "/v1/rankings", nil, http.StatusBadRequest},
		{"blank term", "/v1/rankings?q=%20%20", nil, http.StatusBadRequest},
		{"bad format", "/v1/rankings?q=x&format=xml", nil, http.StatusBadRequest},
		{"gateway fatal", "/v1/rankings?q=x", fmt.Errorf("search: %w", domain.ErrGatewayFatal), http.StatusBadGateway},
		{"breaker open", "/v1/rankings?q=x", fmt.Errorf("%w: %w", domain.ErrGatewayFatal, gmaps.ErrBreakerOpen), http.StatusServiceUnavailable},
		{"deadline", "/v1/rankings?q=x", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unexpected", "/v1/rankings?q=x", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServer(&fakeRanker{err: tt.err}, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", tt.url, nil))
			if rr.Code != tt.status {
				t.Fatalf("want %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("content type %q", ct)
			}
		})
	}
}

func TestGetRanking_TooManyInFlight(t *testing.T) {
	br := &blockingRanker{started: make(chan struct{}, 1), release: make(chan struct{})}
	h := newServer(br, semaphore.NewWeighted(1))

	done := make(chan int)
	go func() {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=first", nil))
		done <- rr.Code
	}()
	<-br.started // the first run now holds the only slot

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=second", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rr.Code)
	}

	close(br.release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
}
