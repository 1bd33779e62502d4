// Package exam contains the pure selection, grading and scoring core.
// Nothing here touches storage or clocks; services feed it persisted rows
// and write its results back.
package exam

import (
	"math/rand"
	"sort"

	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// StratumCounts is a per-difficulty request for stratified sampling.
type StratumCounts struct {
	Easy   int
	Medium int
	Hard   int
}

// Count returns the requested count for one stratum.
func (c StratumCounts) Count(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return c.Easy
	case model.DifficultyMedium:
		return c.Medium
	case model.DifficultyHard:
		return c.Hard
	}
	return 0
}

// Total returns the sum of requested counts across strata.
func (c StratumCounts) Total() int {
	return c.Easy + c.Medium + c.Hard
}

// Shortfall records a stratum whose pool could not satisfy the request.
// Non-fatal: selection caps at the available count and continues.
type Shortfall struct {
	Difficulty model.Difficulty
	Requested  int
	Available  int
}

// SampleStratified draws counts.Count(d) questions uniformly at random
// without replacement from each difficulty stratum of pool. The result
// keeps block order easy, medium, hard with each block internally random.
// A stratum with zero requested is skipped entirely. When a request
// exceeds availability the stratum is capped and reported as a shortfall.
func SampleStratified(pool []model.Question, counts StratumCounts, rng *rand.Rand) ([]model.Question, []Shortfall) {
	byDifficulty := make(map[model.Difficulty][]model.Question, 3)
	for _, q := range pool {
		if !q.IsActive {
			continue
		}
		byDifficulty[q.Difficulty] = append(byDifficulty[q.Difficulty], q)
	}

	var selected []model.Question
	var shortfalls []Shortfall

	for _, d := range model.Difficulties {
		requested := counts.Count(d)
		if requested == 0 {
			continue
		}

		available := byDifficulty[d]
		effective := requested
		if len(available) < requested {
			shortfalls = append(shortfalls, Shortfall{
				Difficulty: d,
				Requested:  requested,
				Available:  len(available),
			})
			effective = len(available)
		}
		if effective == 0 {
			continue
		}

		selected = append(selected, sampleWithoutReplacement(available, effective, rng)...)
	}

	return selected, shortfalls
}

// sampleWithoutReplacement picks n distinct elements uniformly at random.
// The input slice is not modified.
func sampleWithoutReplacement(qs []model.Question, n int, rng *rand.Rand) []model.Question {
	perm := rng.Perm(len(qs))
	picked := make([]model.Question, n)
	for i := 0; i < n; i++ {
		picked[i] = qs[perm[i]]
	}
	return picked
}

// TopicGroupedShuffle randomizes question order while preserving subject
// blocks: questions are grouped by category, groups are ordered by category
// name ascending, each group is shuffled independently and the groups are
// concatenated in that fixed order.
func TopicGroupedShuffle(qs []model.Question, rng *rand.Rand) []model.Question {
	groups := make(map[string][]model.Question)
	for _, q := range qs {
		groups[q.Category] = append(groups[q.Category], q)
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make([]model.Question, 0, len(qs))
	for _, c := range categories {
		group := groups[c]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		out = append(out, group...)
	}
	return out
}
