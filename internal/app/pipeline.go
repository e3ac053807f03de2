package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"places_ranker/internal/adapters/observability"
	"places_ranker/internal/domain"
	"places_ranker/internal/ranking"
)

// Settings is fixed for the lifetime of a RankingService.
type Settings struct {
	Origin       domain.Coords
	RadiusMeters int
	Prior        ranking.PriorConfig
	Cost         ranking.CostModel
}

type RankingService struct {
	gw  domain.Gateway
	set Settings
}

func NewRankingService(gw domain.Gateway, s Settings) *RankingService {
	return &RankingService{gw: gw, set: s}
}

// Rank runs fetch -> prior -> smooth -> enrich -> cost -> sort for term.
// Only gateway failures are returned; per-business problems leave the
// affected fields nil and are logged.
func (s *RankingService) Rank(ctx context.Context, term string) (domain.Ranking, error) {
	runID := uuid.NewString()
	l := log.With().Str("run", runID).Str("term", term).Logger()

	out, err := s.rank(ctx, l, term)
	observability.ObserveRun(err, len(out.Businesses))
	if err != nil {
		l.Error().Err(err).Msg("ranking failed")
		return domain.Ranking{}, err
	}
	out.RunID = runID
	l.Info().Int("businesses", len(out.Businesses)).
		Float64("prior_rating", out.Prior.Rating).
		Float64("prior_weight", out.Prior.Weight).
		Msg("ranking complete")
	return out, nil
}

func (s *RankingService) rank(ctx context.Context, l zerolog.Logger, term string) (domain.Ranking, error) {
	// 1) Fetch. Zero candidates is a valid, empty ranking.
	bs, err := s.gw.Search(ctx, term, s.set.Origin, s.set.RadiusMeters)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("search %q: %w", term, err)
	}
	l.Debug().Int("candidates", len(bs)).Msg("fetched")

	// 2) Prior.
	prior := ranking.EstimatePrior(s.set.Prior, bs)

	// 3) Smooth.
	for i := range bs {
		if err := ranking.Smooth(&bs[i], prior); err != nil {
			noteMiss(l, bs[i], err)
		}
	}

	// 4) Enrich, one batch, joined back by key.
	if err := s.enrich(ctx, l, bs); err != nil {
		return domain.Ranking{}, err
	}

	// 5) Cost, only where travel data is present.
	for i := range bs {
		b := &bs[i]
		if !b.HasTravel() {
			continue
		}
		cost, err := s.set.Cost.Estimate(*b.Distance, *b.TravelTime)
		if err != nil {
			noteMiss(l, *b, err)
			continue
		}
		b.TravelCost = &cost
	}

	// 6) Sort.
	ranking.SortByScore(bs)

	return domain.Ranking{Term: term, Prior: prior, Businesses: bs}, nil
}

func (s *RankingService) enrich(ctx context.Context, l zerolog.Logger, bs []domain.Business) error {
	dests := make([]domain.Destination, 0, len(bs))
	for _, b := range bs {
		if b.Address == nil {
			noteMiss(l, b, errNoAddress)
			continue
		}
		dests = append(dests, domain.Destination{Key: b.Key, Address: *b.Address})
	}
	if len(dests) == 0 {
		return nil
	}

	info, err := s.gw.Enrich(ctx, s.set.Origin, dests)
	if err != nil {
		return fmt.Errorf("enrich %d destinations: %w", len(dests), err)
	}

	for i := range bs {
		b := &bs[i]
		if b.Address == nil {
			continue
		}
		ti, ok := info[b.Key]
		if !ok || !ti.OK() {
			noteMiss(l, *b, &enrichmentMiss{status: ti.Status})
			continue
		}
		dist, dur := ti.Distance, ti.Duration
		b.Distance, b.TravelTime = &dist, &dur
	}
	return nil
}

var errNoAddress = &enrichmentMiss{status: "NO_ADDRESS"}

type enrichmentMiss struct{ status string }

func (e *enrichmentMiss) Error() string {
	if e.status == "" {
		return "enrichment: no result for destination"
	}
	return "enrichment: status " + e.status
}

// noteMiss records a value left absent for one business. None of these
// abort the run.
func noteMiss(l zerolog.Logger, b domain.Business, err error) {
	var em *enrichmentMiss
	reason := "other"
	ev := l.Warn()
	switch {
	case errors.Is(err, ranking.ErrMissingField):
		reason = "missing_field"
		ev = l.Debug()
	case errors.Is(err, ranking.ErrDivisionByZero):
		reason = "division_by_zero"
	case errors.Is(err, ranking.ErrParse):
		reason = "parse"
	case errors.As(err, &em):
		reason = "enrichment"
	}
	observability.ObserveMiss(reason)
	ev.Err(err).Str("business", b.Name).Str("reason", reason).Msg("value left absent")
}
