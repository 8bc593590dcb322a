// Package sentiment scores journal text on a 0..1 scale, where 0 is
// strongly negative and 1 strongly positive. The live classifier calls
// an external text-analytics API; the lexicon classifier runs offline
// on word lists and backs mock mode and tests.
package sentiment

import "context"

// Classifier scores a batch of texts. The returned slice is always the
// same length and order as the input. Implementations must not mutate
// the input slice.
type Classifier interface {
	Score(ctx context.Context, texts []string) ([]float64, error)
}
