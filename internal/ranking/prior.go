package ranking

import "places_ranker/internal/domain"

// PriorConfig selects how the smoothing prior is obtained.
type PriorConfig struct {
	UseFixed bool
	Rating   float64
	Weight   float64
}

// FixedPrior returns the configured constants verbatim.
func FixedPrior(rating, weight float64) domain.Prior {
	return domain.Prior{Rating: rating, Weight: weight}
}

// ComputePrior pools every business with a known rating and count:
// rating = Σ(r·n)/Σn, weight = Σn. Zero total weight yields rating 0.
func ComputePrior(bs []domain.Business) domain.Prior {
	// running weighted mean; a single business yields its rating exactly
	var mean, weight float64
	for _, b := range bs {
		if b.Rating == nil || b.NumRatings == nil || *b.NumRatings <= 0 {
			continue
		}
		n := float64(*b.NumRatings)
		weight += n
		mean += (*b.Rating - mean) * (n / weight)
	}
	if weight == 0 {
		return domain.Prior{}
	}
	return domain.Prior{Rating: mean, Weight: weight}
}

func EstimatePrior(cfg PriorConfig, bs []domain.Business) domain.Prior {
	if cfg.UseFixed {
		return FixedPrior(cfg.Rating, cfg.Weight)
	}
	return ComputePrior(bs)
}
