package ranking_test

import "places_ranker/internal/domain"

func ptr[T any](v T) *T { return &v }

func rated(name string, rating float64, count int) domain.Business {
	return domain.Business{Name: name, Rating: ptr(rating), NumRatings: ptr(count)}
}
