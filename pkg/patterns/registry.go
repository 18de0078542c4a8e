// Package patterns provides a centralized, high-performance registry of
// social-engineering vocabulary patterns. All regexes are compiled once at
// package init and shared across the feature extractor and rule scorer.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at init, not per-message
// - DRY: Single source of truth for all manipulation vocabularies
// - CATEGORIZED: Patterns organized by tactic family for targeted counting
// - EXTENSIBLE: New vocabularies slot in without touching scorer code
package patterns

import (
	"regexp"
	"sync"
)

// Category represents a manipulation tactic family
type Category string

const (
	// Psychological manipulation families (feature extraction)
	CategoryUrgency     Category = "urgency"
	CategoryAuthority   Category = "authority"
	CategoryScarcity    Category = "scarcity"
	CategorySocialProof Category = "social_proof"

	// Information harvesting families
	CategoryInfoRequest       Category = "info_request"
	CategoryFinancial         Category = "financial"
	CategoryPlatformMigration Category = "platform_migration"

	// Emotional tone families
	CategoryPositiveEmotion Category = "positive_emotion"
	CategoryNegativeEmotion Category = "negative_emotion"

	// Rule-scorer families (conversation dynamics)
	CategoryEscalation  Category = "escalation"
	CategoryPrivateInfo Category = "private_info"

	// Structural
	CategoryLink Category = "link"
)

// Pattern holds a compiled regex with metadata
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Tactic family
	Weight      int            // Rule-scorer point contribution per hit
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton)
// Thread-safe and guaranteed to be initialized
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

// newRegistry creates and populates the pattern registry
func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 32),
	}

	r.registerManipulationVocabularies()
	r.registerHarvestingVocabularies()
	r.registerEmotionVocabularies()
	r.registerConversationPatterns()
	r.registerStructuralPatterns()

	return r
}

// register adds a pattern to the registry (internal use only)
func (r *Registry) register(name string, pattern string, category Category, weight int, description string) {
	compiled := regexp.MustCompile(pattern)
	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Weight:      weight,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category
// Returns empty slice if category not found (never nil)
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// CountMatches returns the total number of matches across all patterns in the
// category. A vocabulary word occurring three times counts three times; feature
// counts stay proportional to how hard the sender leans on a tactic.
func (r *Registry) CountMatches(text string, cat Category) int {
	count := 0
	for _, p := range r.GetByCategory(cat) {
		count += len(p.Regex.FindAllString(text, -1))
	}
	return count
}

// MatchAny checks if text matches any pattern in the given categories
// Returns the first matching pattern or nil
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cat := range cats {
		for _, p := range r.byCategory[cat] {
			if p.Regex.MatchString(text) {
				return p
			}
		}
	}
	return nil
}

// MatchAll returns all patterns that match the text in given categories
// Use when you need to know ALL matches (for indicator reporting)
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Pattern
	for _, cat := range cats {
		for _, p := range r.byCategory[cat] {
			if p.Regex.MatchString(text) {
				matches = append(matches, p)
			}
		}
	}
	return matches
}

// TotalPatterns returns the total count of registered patterns
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
