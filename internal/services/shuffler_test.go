package services

import (
	"fmt"
	"testing"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

func TestChoiceShuffler_Disabled(t *testing.T) {
	shuffler := NewChoiceShuffler(NewSeededSource(1))
	for i := 0; i < 20; i++ {
		if got := shuffler.Shuffle(false); got != models.IdentityOrder {
			t.Fatalf("Shuffle(false) = %v, want identity", got)
		}
	}
}

func TestChoiceShuffler_Enabled(t *testing.T) {
	shuffler := NewChoiceShuffler(NewSeededSource(42))
	seen := make(map[models.ChoiceOrder]bool)

	for i := 0; i < 500; i++ {
		order := shuffler.Shuffle(true)
		if !order.Valid() {
			t.Fatalf("Shuffle(true) produced invalid order %v", order)
		}
		seen[order] = true
	}

	// 24 permutations exist; 500 draws should hit nearly all of them
	if len(seen) < 20 {
		t.Errorf("only %d distinct orders in 500 draws", len(seen))
	}
}

func TestChoiceShuffler_SeededIsDeterministic(t *testing.T) {
	a := NewChoiceShuffler(NewSeededSource(7))
	b := NewChoiceShuffler(NewSeededSource(7))

	for i := 0; i < 50; i++ {
		if x, y := a.Shuffle(true), b.Shuffle(true); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestSampleQuestions(t *testing.T) {
	candidates := make([]*models.Question, 10)
	for i := range candidates {
		candidates[i] = &models.Question{ID: uint(i + 1)}
	}
	before := fmt.Sprint(questionIDs(candidates))

	rng := NewSeededSource(3)
	for _, n := range []int{0, 1, 5, 10} {
		picked := sampleQuestions(rng, candidates, n)
		if len(picked) != n {
			t.Fatalf("sampleQuestions(n=%d) returned %d questions", n, len(picked))
		}

		seen := make(map[uint]bool)
		for _, q := range picked {
			if seen[q.ID] {
				t.Fatalf("question %d drawn twice", q.ID)
			}
			seen[q.ID] = true
		}
	}

	if after := fmt.Sprint(questionIDs(candidates)); after != before {
		t.Errorf("candidates were modified: %s -> %s", before, after)
	}
}

func TestSampleQuestions_Uniform(t *testing.T) {
	candidates := make([]*models.Question, 4)
	for i := range candidates {
		candidates[i] = &models.Question{ID: uint(i + 1)}
	}

	counts := make(map[uint]int)
	rng := NewSeededSource(99)
	for i := 0; i < 4000; i++ {
		for _, q := range sampleQuestions(rng, candidates, 2) {
			counts[q.ID]++
		}
	}

	// each question is expected 2000 times
	for id, count := range counts {
		if count < 1800 || count > 2200 {
			t.Errorf("question %d drawn %d times", id, count)
		}
	}
}

func questionIDs(questions []*models.Question) []uint {
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}
