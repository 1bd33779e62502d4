package model

import (
	"sort"

	"github.com/google/uuid"
)

// TemplateAllocation is a per-template difficulty allocation inside a
// multi-template assignment. Input to the selector, never mutated by it.
type TemplateAllocation struct {
	TemplateID  uuid.UUID `json:"template_id"`
	EasyCount   int       `json:"easy_count"`
	MediumCount int       `json:"medium_count"`
	HardCount   int       `json:"hard_count"`
	OrderIndex  int       `json:"order_index"`
}

// Count returns the requested count for one stratum.
func (a TemplateAllocation) Count(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return a.EasyCount
	case DifficultyMedium:
		return a.MediumCount
	case DifficultyHard:
		return a.HardCount
	}
	return 0
}

// IsZero reports whether the allocation requests nothing from any stratum.
func (a TemplateAllocation) IsZero() bool {
	return a.EasyCount == 0 && a.MediumCount == 0 && a.HardCount == 0
}

// AllocationSpec is the selector input for one session. Templates carries
// the assignment's templates in order; the aggregate counts apply in pool
// mode when no template carries its own allocation.
type AllocationSpec struct {
	Templates   []TemplateAllocation `json:"templates" binding:"required,min=1,dive"`
	UsePool     bool                 `json:"use_pool"`
	EasyCount   int                  `json:"easy_count" binding:"min=0"`
	MediumCount int                  `json:"medium_count" binding:"min=0"`
	HardCount   int                  `json:"hard_count" binding:"min=0"`
	Randomize   bool                 `json:"randomize"`
}

// AggregateCount returns the assignment-level requested count for one stratum.
func (s AllocationSpec) AggregateCount(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return s.EasyCount
	case DifficultyMedium:
		return s.MediumCount
	case DifficultyHard:
		return s.HardCount
	}
	return 0
}

// HasPerTemplateAllocations reports whether any template carries a nonzero
// allocation of its own. When none does, the aggregate counts are drawn
// from the union of all templates' pools instead. The precedence of this
// fallback is preserved from the original product behavior.
func (s AllocationSpec) HasPerTemplateAllocations() bool {
	for _, t := range s.Templates {
		if !t.IsZero() {
			return true
		}
	}
	return false
}

// SortedTemplates returns a copy of Templates ordered by OrderIndex
// ascending, stable over request order for ties. Template blocks are
// concatenated in this order regardless of how the caller listed them.
func (s AllocationSpec) SortedTemplates() []TemplateAllocation {
	out := make([]TemplateAllocation, len(s.Templates))
	copy(out, s.Templates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// TemplateIDs returns the template IDs in assignment order.
func (s AllocationSpec) TemplateIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Templates))
	for i, t := range s.Templates {
		ids[i] = t.TemplateID
	}
	return ids
}
