//go:build integration || !unit

package integration

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"places_ranker/internal/adapters/gmaps"
	server "places_ranker/internal/adapters/http_server"
	"places_ranker/internal/app"
	"places_ranker/internal/domain"
	"places_ranker/internal/ranking"
	"places_ranker/internal/report"
)

// ---------- fake places provider ----------

type fakeMaps struct {
	deny     atomic.Bool
	calls    atomic.Int32
	searches atomic.Int32
	matrix   atomic.Int32
}

func (f *fakeMaps) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	w.Header().Set("Content-Type", "application/json")
	if f.deny.Load() {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
		return
	}
	switch r.URL.Path {
	case "/place/textsearch/json":
		f.searches.Add(1)
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Bean There","formatted_address":"1 Main St","rating":5.0,"user_ratings_total":3,"place_id":"p-b"},
			{"name":"Grind House","formatted_address":"2 Oak Ave","rating":4.9,"user_ratings_total":200,"place_id":"p-a"},
			{"name":"Drip Drop","formatted_address":"3 Elm Rd","rating":4.4,"user_ratings_total":50,"place_id":"p-c"}
		]}`))
	case "/distancematrix/json":
		f.matrix.Add(1)
		// destinations arrive in the order they were sent
		dests := strings.Split(r.URL.Query().Get("destinations"), "|")
		elems := make([]string, 0, len(dests))
		for _, d := range dests {
			switch d {
			case "1 Main St":
				elems = append(elems, `{"status":"ZERO_RESULTS"}`)
			case "2 Oak Ave":
				elems = append(elems, `{"status":"OK","distance":{"text":"2.0 mi","value":3219},"duration":{"text":"10 mins","value":600}}`)
			default:
				elems = append(elems, `{"status":"OK","distance":{"text":"4 mi","value":6437},"duration":{"text":"1 hour","value":3600}}`)
			}
		}
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[` + strings.Join(elems, ",") + `]}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newStack(t *testing.T) (*fakeMaps, http.Handler) {
	t.Helper()
	fm := &fakeMaps{}
	upstream := httptest.NewServer(fm)
	t.Cleanup(upstream.Close)

	client, err := gmaps.New(upstream.URL, "e2e-key", 100)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	svc := app.NewRankingService(gmaps.NewGuarded(client, 2, time.Minute), app.Settings{
		Origin:       domain.Coords{Lat: 35.997723, Lon: -86.796276},
		RadiusMeters: 1000,
		Prior:        ranking.PriorConfig{UseFixed: true, Rating: 4.2, Weight: 25},
		Cost:         ranking.CostModel{PricePerMile: 0.5, TimeValuePerHour: 30},
	})

	srv := server.New(zerolog.Nop(), 5*time.Second)
	srv.MountHandlers(&server.Handlers{R: svc, Table: report.Table{NameWidth: 40}})
	return fm, srv.Mux()
}

type rankingBody struct {
	Businesses []struct {
		PlaceID    string   `json:"place_id"`
		Bayes      *float64 `json:"bayesian_average"`
		TravelCost *float64 `json:"travel_cost"`
	} `json:"businesses"`
}

// ---------- the tests ----------

func TestHTTP_EndToEnd_Ranking(t *testing.T) {
	fm, h := newStack(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var body rankingBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// A: (105+980)/225 = 4.822, C: (105+220)/75 = 4.333, B: (105+15)/28 = 4.286
	order := []string{"p-a", "p-c", "p-b"}
	if len(body.Businesses) != len(order) {
		t.Fatalf("expected %d businesses, got %d", len(order), len(body.Businesses))
	}
	for i, id := range order {
		if body.Businesses[i].PlaceID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, body.Businesses[i].PlaceID)
		}
	}
	// 2 mi * 0.5 + 1/6 h * 30 * 2 = 11; 4 mi * 0.5 + 1 h * 30 * 2 = 62
	if c := body.Businesses[0].TravelCost; c == nil || math.Abs(*c-11) > 1e-9 {
		t.Fatalf("cost A: %v", c)
	}
	if c := body.Businesses[1].TravelCost; c == nil || math.Abs(*c-62) > 1e-9 {
		t.Fatalf("cost C: %v", c)
	}
	if body.Businesses[2].TravelCost != nil || body.Businesses[2].Bayes == nil {
		t.Fatalf("unreachable business keeps its score and has no cost")
	}
	if fm.searches.Load() != 1 || fm.matrix.Load() != 1 {
		t.Fatalf("expected one call per endpoint, got %d/%d", fm.searches.Load(), fm.matrix.Load())
	}
}

func TestHTTP_EndToEnd_Table(t *testing.T) {
	_, h := newStack(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=coffee&format=table", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	lines := strings.Split(strings.TrimSuffix(rr.Body.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 2 prior lines, blank, header, rule and 3 rows; got %d", len(lines))
	}
	if !strings.HasPrefix(lines[5], "p-a") || !strings.Contains(lines[5], "4.82") {
		t.Fatalf("unexpected first row %q", lines[5])
	}
	if strings.Count(lines[7], report.Placeholder) != 3 {
		t.Fatalf("unreachable row must show placeholders: %q", lines[7])
	}
}

func TestHTTP_EndToEnd_UpstreamDenied(t *testing.T) {
	fm, h := newStack(t)
	fm.deny.Store(true)

	get := func() int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/rankings?q=coffee", nil))
		return rr.Code
	}
	if code := get(); code != http.StatusBadGateway {
		t.Fatalf("first denied call: want 502, got %d", code)
	}
	if code := get(); code != http.StatusBadGateway {
		t.Fatalf("second denied call: want 502, got %d", code)
	}
	// two consecutive failures trip the breaker
	before := fm.calls.Load()
	if code := get(); code != http.StatusServiceUnavailable {
		t.Fatalf("open breaker: want 503, got %d", code)
	}
	if fm.calls.Load() != before {
		t.Fatalf("open breaker must not reach upstream")
	}
}
