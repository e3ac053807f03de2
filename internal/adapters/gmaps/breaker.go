package gmaps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"

	"places_ranker/internal/domain"
)

// ErrBreakerOpen is returned while the upstream is considered down.
var ErrBreakerOpen = errors.New("gmaps: circuit open")

// Guarded puts a circuit breaker in front of a Gateway. After
// consecutiveFailures fatal errors in a row it refuses calls for cooldown.
type Guarded struct {
	next domain.Gateway
	cb   *cb.CircuitBreaker
}

func NewGuarded(next domain.Gateway, consecutiveFailures uint32, cooldown time.Duration) *Guarded {
	if consecutiveFailures == 0 {
		consecutiveFailures = 3
	}
	st := cb.Settings{
		Name:     "gmaps",
		Interval: 60 * time.Second,
		Timeout:  cooldown,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		// a cancelled caller says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to cb.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state change")
		},
	}
	return &Guarded{next: next, cb: cb.NewCircuitBreaker(st)}
}

func (g *Guarded) Search(ctx context.Context, term string, origin domain.Coords, radiusMeters int) ([]domain.Business, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.next.Search(ctx, term, origin, radiusMeters)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return v.([]domain.Business), nil
}

func (g *Guarded) Enrich(ctx context.Context, origin domain.Coords, dests []domain.Destination) (map[string]domain.TravelInfo, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.next.Enrich(ctx, origin, dests)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return v.(map[string]domain.TravelInfo), nil
}

func breakerErr(err error) error {
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w: %w", domain.ErrGatewayFatal, ErrBreakerOpen, err)
	}
	return err
}
