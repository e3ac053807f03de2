// Package ranking holds the arithmetic of the ranker: the smoothing prior,
// Bayesian averaging, travel text parsing, the travel cost model and the
// final ordering. Everything here is pure and works on domain.Business values.
package ranking
