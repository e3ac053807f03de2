package ranking

import "places_ranker/internal/domain"

// BayesianAverage smooths rating toward the prior:
// (prior.Rating*prior.Weight + rating*count) / (prior.Weight + count).
func BayesianAverage(rating float64, count int, p domain.Prior) (float64, error) {
	n := float64(count)
	den := p.Weight + n
	if den == 0 {
		return 0, ErrDivisionByZero
	}
	return (p.Rating*p.Weight + rating*n) / den, nil
}

// Smooth writes the Bayesian average onto b. A business with an unknown
// rating or count keeps a nil score and ErrMissingField is returned.
func Smooth(b *domain.Business, p domain.Prior) error {
	b.BayesianAverage = nil
	if b.Rating == nil || b.NumRatings == nil {
		return ErrMissingField
	}
	avg, err := BayesianAverage(*b.Rating, *b.NumRatings, p)
	if err != nil {
		return err
	}
	b.BayesianAverage = &avg
	return nil
}
