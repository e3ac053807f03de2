package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"places_ranker/internal/adapters/gmaps"
	"places_ranker/internal/domain"
	"places_ranker/internal/report"
)

// Ranker is the part of the ranking service the handlers need.
type Ranker interface {
	Rank(ctx context.Context, term string) (domain.Ranking, error)
}

type Handlers struct {
	R     Ranker
	Sem   *semaphore.Weighted // bounds concurrent runs; nil means unbounded
	Table report.Table
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type priorDTO struct {
	Rating float64 `json:"rating"`
	Weight float64 `json:"weight"`
}

type businessDTO struct {
	Rank            int      `json:"rank"`
	PlaceID         *string  `json:"place_id"`
	Name            string   `json:"name"`
	Address         *string  `json:"address"`
	Rating          *float64 `json:"rating"`
	NumRatings      *int     `json:"num_ratings"`
	BayesianAverage *float64 `json:"bayesian_average"`
	Distance        *string  `json:"distance"`
	TravelTime      *string  `json:"travel_time"`
	TravelCost      *float64 `json:"travel_cost"`
}

type rankingDTO struct {
	RunID      string        `json:"run_id"`
	Term       string        `json:"term"`
	Prior      priorDTO      `json:"prior"`
	Businesses []businessDTO `json:"businesses"`
}

func toDTO(r domain.Ranking) rankingDTO {
	out := rankingDTO{
		RunID:      r.RunID,
		Term:       r.Term,
		Prior:      priorDTO{Rating: r.Prior.Rating, Weight: r.Prior.Weight},
		Businesses: make([]businessDTO, 0, len(r.Businesses)),
	}
	for i, b := range r.Businesses {
		out.Businesses = append(out.Businesses, businessDTO{
			Rank:            i + 1,
			PlaceID:         b.PlaceID,
			Name:            b.Name,
			Address:         b.Address,
			Rating:          b.Rating,
			NumRatings:      b.NumRatings,
			BayesianAverage: b.BayesianAverage,
			Distance:        b.Distance,
			TravelTime:      b.TravelTime,
			TravelCost:      b.TravelCost,
		})
	}
	return out
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Get("/v1/rankings", h.getRanking)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// etagAndBody marshals the ranking once. The ETag covers the content only,
// so two runs producing the same ranking share it.
func etagAndBody(d rankingDTO) (string, []byte, error) {
	runID := d.RunID
	d.RunID = ""
	content, err := json.Marshal(d)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(content)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`

	d.RunID = runID
	body, err := json.Marshal(d)
	if err != nil {
		return "", nil, err
	}
	return etag, body, nil
}

func (h *Handlers) getRanking(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeProblem(w, http.StatusBadRequest, "Missing search term", "query parameter q is required")
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "table" && format != "csv" {
		writeProblem(w, http.StatusBadRequest, "Invalid format", "format must be json, table or csv")
		return
	}

	if h.Sem != nil {
		if !h.Sem.TryAcquire(1) {
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "too many rankings in flight")
			return
		}
		defer h.Sem.Release(1)
	}

	res, err := h.R.Rank(r.Context(), term)
	if err != nil {
		h.rankFailed(w, err)
		return
	}

	switch format {
	case "table":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := h.Table.Render(w, res); err != nil {
			log.Error().Err(err).Msg("write table body failed")
		}
		return
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := report.WriteCSV(w, res); err != nil {
			log.Error().Err(err).Msg("write csv body failed")
		}
		return
	}

	etag, body, err := etagAndBody(toDTO(res))
	if err != nil {
		log.Error().Err(err).Msg("marshal ranking failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Run-ID", res.RunID)
	// client already has this ranking
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write ranking body failed")
	}
}

func (h *Handlers) rankFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gmaps.ErrBreakerOpen):
		writeProblem(w, http.StatusServiceUnavailable, "Upstream Unavailable", "places provider is failing, retry later")
	case errors.Is(err, domain.ErrGatewayFatal):
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "places provider request failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", "")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
