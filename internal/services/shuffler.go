package services

import (
	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ChoiceShuffler produces the choice order stored on an exam question
type ChoiceShuffler interface {
	Shuffle(enabled bool) models.ChoiceOrder
}

type choiceShuffler struct {
	rng RandomSource
}

func NewChoiceShuffler(rng RandomSource) ChoiceShuffler {
	return &choiceShuffler{rng: rng}
}

// Shuffle returns the identity order when disabled, otherwise a uniformly
// random permutation of A, B, C and D
func (s *choiceShuffler) Shuffle(enabled bool) models.ChoiceOrder {
	order := models.IdentityOrder
	if !enabled {
		return order
	}
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// sampleQuestions picks n candidates uniformly without replacement. The result
// order is the draw order.
func sampleQuestions(rng RandomSource, candidates []*models.Question, n int) []*models.Question {
	pool := make([]*models.Question, len(candidates))
	copy(pool, candidates)

	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
