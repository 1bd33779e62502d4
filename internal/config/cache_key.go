package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionSelectionKey returns the cache key for a session's selected
// question order (ordered question IDs).
func (r *CacheKeyStruct) SessionSelectionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:selection", sessionID)
}

// TemplatePoolStatsKey returns the cache key for a template's per-difficulty
// pool availability counts.
func (r *CacheKeyStruct) TemplatePoolStatsKey(templateID string) string {
	return fmt.Sprintf("template:%s:pool_stats", templateID)
}

var CacheKey = NewCacheKeyStruct()
