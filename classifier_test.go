package main

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubRuleSource struct {
	entries []KnowledgeBaseEntry
	err     error
}

func (s stubRuleSource) ActiveEntries() ([]KnowledgeBaseEntry, error) {
	return s.entries, s.err
}

func kbEntry(category, team string, weight float64, keywords ...string) KnowledgeBaseEntry {
	return KnowledgeBaseEntry{
		Category: category,
		Team:     team,
		Keywords: keywords,
		Weight:   weight,
		Active:   true,
	}
}

func TestCompileRulesSplitsPatternGroups(t *testing.T) {
	rules := CompileRules([]KnowledgeBaseEntry{
		kbEntry("Facilities", "Facilities", 2.0, "power cut", "wifi", "projector", "system down"),
	})
	if len(rules) != 1 {
		t.Fatalf("expected 1 compiled rule, got %d", len(rules))
	}

	r := rules[0]
	if len(r.groups) != 2 {
		t.Fatalf("expected 2 pattern groups, got %d", len(r.groups))
	}
	multi, single := r.groups[0], r.groups[1]
	if len(multi.patterns) != 2 || multi.weight != 30.0 {
		t.Fatalf("unexpected multi-word group: %d patterns, weight %.1f", len(multi.patterns), multi.weight)
	}
	if len(single.patterns) != 2 || single.weight != 20.0 {
		t.Fatalf("unexpected single-word group: %d patterns, weight %.1f", len(single.patterns), single.weight)
	}
}

func TestCompileRulesEmptyKeywords(t *testing.T) {
	rules := CompileRules([]KnowledgeBaseEntry{
		kbEntry("Empty", "Nobody", 1.0),
	})
	if len(rules) != 1 {
		t.Fatalf("expected 1 compiled rule, got %d", len(rules))
	}
	if got := rules[0].Score("anything at all"); got != 0 {
		t.Fatalf("empty rule should score 0, got %.1f", got)
	}
}

func TestScoreCountsRepeatedMatches(t *testing.T) {
	rules := CompileRules([]KnowledgeBaseEntry{
		kbEntry("Facilities", "Facilities", 1.0, "power cut"),
	})
	got := rules[0].Score("power cut reported, another power cut at noon")
	if got != 30.0 {
		t.Fatalf("expected two matches worth 30, got %.1f", got)
	}
}

func TestCategorizeEndToEndScoring(t *testing.T) {
	c := NewClassifier(stubRuleSource{entries: []KnowledgeBaseEntry{
		kbEntry("Facilities", "Facilities", 1.0, "power cut"),
		kbEntry("Platform Issues", "Product/Tech", 1.2, "login"),
	}}, "Learning Portal Issues")

	result := c.Categorize("power cut during login")
	if result.Category != "Facilities" {
		t.Fatalf("expected Facilities, got %s (score %.1f)", result.Category, result.Score)
	}
	if result.Score != 15.0 {
		t.Fatalf("expected score 15, got %.1f", result.Score)
	}
	if result.Fallback {
		t.Fatal("expected a confident result, not a fallback")
	}
}

func TestCategorizeWordBoundary(t *testing.T) {
	c := NewClassifier(stubRuleSource{entries: []KnowledgeBaseEntry{
		kbEntry("Facilities", "Facilities", 1.0, "room"),
	}}, "Learning Portal Issues")

	result := c.Categorize("bedroom issue")
	if !result.Fallback || result.Category != "Learning Portal Issues" {
		t.Fatalf("'room' must not match inside 'bedroom': got %s (fallback=%v)", result.Category, result.Fallback)
	}

	result = c.Categorize("the room is locked")
	if result.Category != "Facilities" {
		t.Fatalf("whole-word 'room' should match: got %s", result.Category)
	}
}

func TestCategorizeFallbacks(t *testing.T) {
	rules := []KnowledgeBaseEntry{kbEntry("Quiz Issues", "Curriculum/Content", 1.0, "quiz")}

	tests := []struct {
		name   string
		source stubRuleSource
		text   string
	}{
		{"empty text", stubRuleSource{entries: rules}, ""},
		{"no keyword match", stubRuleSource{entries: rules}, "nothing relevant here"},
		{"empty rule set", stubRuleSource{}, "quiz broken"},
		// 10 * 0.4 = 4, below the significance threshold of 5.
		{"below threshold", stubRuleSource{entries: []KnowledgeBaseEntry{
			kbEntry("Quiz Issues", "Curriculum/Content", 0.4, "quiz"),
		}}, "quiz broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.source, "Learning Portal Issues")
			result := c.Categorize(tt.text)
			if !result.Fallback {
				t.Fatalf("expected fallback, got %s with score %.1f", result.Category, result.Score)
			}
			if result.Category != "Learning Portal Issues" {
				t.Fatalf("expected default category, got %s", result.Category)
			}
		})
	}
}

func TestCategorizeRuleLoadError(t *testing.T) {
	loadErr := errors.New("kb unavailable")
	c := NewClassifier(stubRuleSource{err: loadErr}, "Learning Portal Issues")

	result := c.Categorize("power cut")
	if result.Category != "Learning Portal Issues" || !result.Fallback {
		t.Fatalf("load error must fall back to default, got %+v", result)
	}
	if !errors.Is(result.Err, loadErr) {
		t.Fatalf("expected the load error to be surfaced, got %v", result.Err)
	}
}

func TestCategorizeTieBrokenByRuleOrder(t *testing.T) {
	first := kbEntry("First", "A", 1.0, "overlap")
	second := kbEntry("Second", "B", 1.0, "overlap")

	c := NewClassifier(stubRuleSource{entries: []KnowledgeBaseEntry{first, second}}, "Default")
	if got := c.Categorize("overlap"); got.Category != "First" {
		t.Fatalf("tie should go to the first compiled rule, got %s", got.Category)
	}

	c = NewClassifier(stubRuleSource{entries: []KnowledgeBaseEntry{second, first}}, "Default")
	if got := c.Categorize("overlap"); got.Category != "Second" {
		t.Fatalf("tie should follow insertion order, got %s", got.Category)
	}
}

func TestBatchCategorizeIdempotent(t *testing.T) {
	c := NewClassifier(stubRuleSource{entries: []KnowledgeBaseEntry{
		kbEntry("Facilities", "Facilities", 1.0, "power cut", "projector"),
		kbEntry("Quiz Issues", "Curriculum/Content", 1.0, "quiz", "assessment"),
	}}, "Learning Portal Issues")

	now := time.Now()
	tickets := []Ticket{
		{ID: "1", Subject: "Power cut in classroom", ModifiedTime: now},
		{ID: "2", Subject: "Quiz not loading", ModifiedTime: now},
		{ID: "3", Subject: "Unrelated question", ModifiedTime: now},
	}

	firstPass := c.BatchCategorize(tickets)
	secondPass := c.BatchCategorize(tickets)
	if !reflect.DeepEqual(firstPass, secondPass) {
		t.Fatalf("batch categorization not idempotent: %v vs %v", firstPass, secondPass)
	}
	if firstPass["1"] != "Facilities" || firstPass["2"] != "Quiz Issues" || firstPass["3"] != "Learning Portal Issues" {
		t.Fatalf("unexpected assignments: %v", firstPass)
	}
}
