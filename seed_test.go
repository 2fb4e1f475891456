package main

import "testing"

func TestEnsureDefaultKnowledgeBase(t *testing.T) {
	db := newTestDB(t)

	if err := EnsureDefaultKnowledgeBase(db); err != nil {
		t.Fatalf("EnsureDefaultKnowledgeBase failed: %v", err)
	}
	entries, err := GetActiveKBEntries(db)
	if err != nil {
		t.Fatalf("GetActiveKBEntries failed: %v", err)
	}
	if len(entries) != len(DefaultKnowledgeBase()) {
		t.Fatalf("expected %d seeded entries, got %d", len(DefaultKnowledgeBase()), len(entries))
	}

	team, err := TeamForCategory(db, "Facilities")
	if err != nil || team != "Facilities" {
		t.Fatalf("seeded team lookup: team=%q err=%v", team, err)
	}
}

func TestEnsureDefaultKnowledgeBaseLeavesExistingAlone(t *testing.T) {
	db := newTestDB(t)

	if err := UpsertKBEntries(db, []KnowledgeBaseEntry{
		kbEntry("Custom", "Custom Team", 1.0, "custom"),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := EnsureDefaultKnowledgeBase(db); err != nil {
		t.Fatalf("EnsureDefaultKnowledgeBase failed: %v", err)
	}

	entries, _ := GetActiveKBEntries(db)
	if len(entries) != 1 || entries[0].Category != "Custom" {
		t.Fatalf("populated knowledge base must not be reseeded, got %d entries", len(entries))
	}
}

func TestDefaultKnowledgeBaseClassifies(t *testing.T) {
	db := newTestDB(t)
	if err := EnsureDefaultKnowledgeBase(db); err != nil {
		t.Fatalf("EnsureDefaultKnowledgeBase failed: %v", err)
	}

	c := NewClassifier(KBRuleSource{DB: db}, "Learning Portal Issues")

	tests := []struct {
		text string
		want string
	}{
		{"projector broken in the classroom", "Facilities"},
		{"quiz grading shows wrong marks", "Quiz Issues"},
		{"student portal dashboard will not load", "Student Portal"},
		{"completely unrelated message", "Learning Portal Issues"},
	}
	for _, tt := range tests {
		if got := c.Categorize(tt.text); got.Category != tt.want {
			t.Fatalf("Categorize(%q) = %s (score %.1f), want %s", tt.text, got.Category, got.Score, tt.want)
		}
	}
}
