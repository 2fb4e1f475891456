package main

import (
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// Empirically tuned scoring constants. Multi-word phrases score higher
// per match because they are more specific and less prone to false
// positives. A winner below the significance threshold is discarded in
// favor of the default category.
const (
	multiWordWeight       = 15.0
	singleWordWeight      = 10.0
	significanceThreshold = 5.0
)

// patternGroup is one weighted set of compiled keyword patterns.
type patternGroup struct {
	patterns []*regexp.Regexp
	weight   float64
}

// CompiledRule is the scoring form of one knowledge base entry. It lives
// for a single categorization pass and is never persisted.
type CompiledRule struct {
	Category string
	Team     string
	groups   []patternGroup
}

// CompileRules turns the active knowledge base into per-category pattern
// groups, preserving entry order. An entry with no keywords compiles to
// an empty rule that scores zero and never wins.
func CompileRules(entries []KnowledgeBaseEntry) []CompiledRule {
	rules := make([]CompiledRule, 0, len(entries))
	for _, e := range entries {
		var multi, single []*regexp.Regexp
		for _, kw := range e.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			re, err := compileKeyword(kw)
			if err != nil {
				log.Printf("Skipping unmatchable keyword %q in category %q: %v", kw, e.Category, err)
				continue
			}
			if len(strings.Fields(kw)) > 1 {
				multi = append(multi, re)
			} else {
				single = append(single, re)
			}
		}

		weight := e.Weight
		if weight <= 0 {
			weight = 1.0
		}
		rule := CompiledRule{Category: e.Category, Team: e.Team}
		if len(multi) > 0 {
			rule.groups = append(rule.groups, patternGroup{patterns: multi, weight: multiWordWeight * weight})
		}
		if len(single) > 0 {
			rule.groups = append(rule.groups, patternGroup{patterns: single, weight: singleWordWeight * weight})
		}
		rules = append(rules, rule)
	}
	return rules
}

// compileKeyword builds a whole-word, case-insensitive matcher. Word
// boundaries keep "room" from matching inside "bedroom".
func compileKeyword(kw string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
}

// Score sums, over every pattern group, occurrence count times group weight.
func (r CompiledRule) Score(text string) float64 {
	var total float64
	for _, g := range r.groups {
		matches := 0
		for _, re := range g.patterns {
			matches += len(re.FindAllStringIndex(text, -1))
		}
		total += float64(matches) * g.weight
	}
	return total
}

// RuleSource is the read-through accessor for the current active rule
// set. The classifier consults it on every call rather than caching, so
// knowledge base edits take effect immediately.
type RuleSource interface {
	ActiveEntries() ([]KnowledgeBaseEntry, error)
}

// KBRuleSource reads rules from the knowledge_base table.
type KBRuleSource struct {
	DB *sql.DB
}

func (s KBRuleSource) ActiveEntries() ([]KnowledgeBaseEntry, error) {
	return GetActiveKBEntries(s.DB)
}

// Classification is the explicit result of one categorization: either a
// confident winner, or the default category with Fallback set. Err is
// populated only when the rule set could not be loaded.
type Classification struct {
	Category string
	Score    float64
	Fallback bool
	Err      error
}

type Classifier struct {
	rules           RuleSource
	defaultCategory string
	threshold       float64
}

func NewClassifier(rules RuleSource, defaultCategory string) *Classifier {
	return &Classifier{
		rules:           rules,
		defaultCategory: defaultCategory,
		threshold:       significanceThreshold,
	}
}

// Categorize scores text against the current rule set and returns the
// winning category. It never fails: a rule load error or a winning score
// below the significance threshold falls back to the default category.
func (c *Classifier) Categorize(text string) Classification {
	entries, err := c.rules.ActiveEntries()
	if err != nil {
		return Classification{Category: c.defaultCategory, Fallback: true, Err: err}
	}
	return c.classify(text, CompileRules(entries))
}

// classify is the pure scoring core: strictly-highest score wins, ties
// broken by compiled rule order.
func (c *Classifier) classify(text string, rules []CompiledRule) Classification {
	if len(rules) == 0 {
		return Classification{Category: c.defaultCategory, Fallback: true}
	}

	best := Classification{Category: rules[0].Category, Score: rules[0].Score(text)}
	for _, r := range rules[1:] {
		if score := r.Score(text); score > best.Score {
			best = Classification{Category: r.Category, Score: score}
		}
	}

	if best.Score < c.threshold {
		return Classification{Category: c.defaultCategory, Score: best.Score, Fallback: true}
	}
	return best
}

// BatchCategorize classifies each ticket independently and returns the
// ticket id to category mapping. The per-category tally is logged for
// observability.
func (c *Classifier) BatchCategorize(tickets []Ticket) map[string]string {
	categorized := make(map[string]string, len(tickets))
	counts := make(map[string]int)

	for _, t := range tickets {
		result := c.Categorize(t.SearchText())
		if result.Err != nil {
			log.Printf("Error loading rules for ticket %s, using default category: %v", t.ID, result.Err)
		} else if result.Fallback {
			log.Printf("Ticket %s defaulted to %s (score: %.1f)", t.ID, result.Category, result.Score)
		} else {
			log.Printf("Ticket %s categorized as %s (score: %.1f)", t.ID, result.Category, result.Score)
		}
		categorized[t.ID] = result.Category
		counts[result.Category]++
	}

	if len(counts) > 0 {
		var parts []string
		for category, n := range counts {
			parts = append(parts, fmt.Sprintf("%s=%d", category, n))
		}
		log.Printf("Categorization summary: %s", strings.Join(parts, " "))
	}
	return categorized
}
