package game

import "math"

// KFactor controls rating volatility per game.
const KFactor = 32

// ComputeRatings returns the updated ELO ratings for two players given the
// outcome for player A (1 = win, 0.5 = draw, 0 = loss). Results are rounded
// to the nearest integer.
func ComputeRatings(ratingA, ratingB int, outcomeA float64) (int, int) {
	expectedA := 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
	expectedB := 1.0 / (1.0 + math.Pow(10, float64(ratingA-ratingB)/400.0))

	outcomeB := 1.0 - outcomeA

	newA := math.Round(float64(ratingA) + KFactor*(outcomeA-expectedA))
	newB := math.Round(float64(ratingB) + KFactor*(outcomeB-expectedB))

	return int(newA), int(newB)
}
