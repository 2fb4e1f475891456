package main

import (
	"database/sql"
	"log"
)

// EnsureDefaultKnowledgeBase seeds the default categorization rules when
// the knowledge base is empty, so a fresh install routes tickets out of
// the box. Populated databases are left untouched.
func EnsureDefaultKnowledgeBase(db *sql.DB) error {
	count, err := CountKBEntries(db)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Initializing default knowledge base...")
	entries := DefaultKnowledgeBase()
	if err := UpsertKBEntries(db, entries); err != nil {
		return err
	}
	log.Printf("Loaded %d default knowledge base entries", len(entries))
	return nil
}

func DefaultKnowledgeBase() []KnowledgeBaseEntry {
	return []KnowledgeBaseEntry{
		{
			Category:    "Platform Issues",
			Team:        "Product/Tech",
			Keywords:    []string{"platform", "system", "technical", "bug", "error", "crash", "server", "database", "api", "integration", "system down", "technical issue"},
			Description: "Technical issues with the platform infrastructure",
			Weight:      1.0,
		},
		{
			Category:    "Facilities",
			Team:        "Facilities",
			Keywords:    []string{"facilities", "room", "equipment", "hardware", "projector", "wifi", "internet", "network", "venue", "location", "building", "classroom", "power cut"},
			Description: "Physical facilities and equipment issues",
			Weight:      1.0,
		},
		{
			Category:    "Session Timing Issues",
			Team:        "Curriculum/Content",
			Keywords:    []string{"timing", "schedule", "delay", "late", "early", "reschedule", "time", "duration", "session time", "timing issue"},
			Description: "Issues related to session timing and scheduling",
			Weight:      1.0,
		},
		{
			Category:    "Tech QA Report Issue",
			Team:        "Product/Tech",
			Keywords:    []string{"qa", "quality", "testing", "report", "bug report", "defect", "issue report", "technical report", "quality assurance"},
			Description: "Quality assurance and technical reporting issues",
			Weight:      1.0,
		},
		{
			Category:    "Other On-Ground Issues",
			Team:        "Facilities",
			Keywords:    []string{"on-ground", "physical", "venue", "location", "setup", "arrangement", "logistics", "on-site"},
			Description: "Other physical or logistical issues",
			Weight:      1.0,
		},
		{
			Category:    "Student Portal",
			Team:        "Product/Tech",
			Keywords:    []string{"student portal", "student login", "student access", "student dashboard", "student account", "student interface"},
			Description: "Issues specific to student portal access and functionality",
			Weight:      1.0,
		},
		{
			Category:    "Scheduling Issue",
			Team:        "Curriculum/Content",
			Keywords:    []string{"scheduling", "calendar", "appointment", "booking", "slot", "availability", "reschedule", "schedule conflict"},
			Description: "General scheduling and calendar issues",
			Weight:      1.0,
		},
		{
			Category:    "Session Handling Issues",
			Team:        "Instructor",
			Keywords:    []string{"session handling", "instructor", "teaching", "class management", "session conduct", "classroom management"},
			Description: "Issues related to how sessions are conducted by instructors",
			Weight:      1.0,
		},
		{
			Category:    "Learning Portal Issues",
			Team:        "Product/Tech",
			Keywords:    []string{"learning portal", "portal", "login", "access", "authentication", "password", "account", "portal access"},
			Description: "General learning portal access and functionality issues",
			Weight:      1.0,
		},
		{
			Category:    "Feature Flags / Roles Adding",
			Team:        "Product/Tech",
			Keywords:    []string{"feature flag", "role", "permission", "access level", "user role", "admin", "privileges", "feature toggle"},
			Description: "Adding or modifying user roles and feature flags",
			Weight:      1.0,
		},
		{
			Category:    "Content Access",
			Team:        "Curriculum/Content",
			Keywords:    []string{"content access", "material", "resource", "document", "video", "lesson", "module", "learning material"},
			Description: "Issues accessing learning content and materials",
			Weight:      1.0,
		},
		{
			Category:    "Portal Access",
			Team:        "Product/Tech",
			Keywords:    []string{"portal access", "login", "authentication", "password reset", "account locked", "access denied"},
			Description: "General portal access and login issues",
			Weight:      1.0,
		},
		{
			Category:    "Content Bundle",
			Team:        "Curriculum/Content",
			Keywords:    []string{"content bundle", "curriculum", "course", "bundle", "package", "learning path", "course material"},
			Description: "Issues with content bundles and curriculum packages",
			Weight:      1.0,
		},
		{
			Category:    "Quiz Issues",
			Team:        "Curriculum/Content",
			Keywords:    []string{"quiz", "assessment", "test", "exam", "evaluation", "score", "grading", "marks", "question", "answer"},
			Description: "Issues related to quizzes and assessments",
			Weight:      1.0,
		},
		{
			Category:    "Instructor Categories Adding",
			Team:        "Instructor",
			Keywords:    []string{"instructor category", "instructor role", "teacher", "mentor", "faculty", "instructor permissions", "teaching role"},
			Description: "Adding or managing instructor categories and permissions",
			Weight:      1.0,
		},
		{
			Category:    "Units Unlock",
			Team:        "Curriculum/Content",
			Keywords:    []string{"units unlock", "unlock", "locked", "progression", "next unit", "module unlock", "course progression"},
			Description: "Issues with unlocking units or course progression",
			Weight:      1.0,
		},
		{
			Category:    "Data mismatching in lookers studio",
			Team:        "DA Team",
			Keywords:    []string{"data mismatch", "looker", "studio", "analytics", "reporting", "dashboard", "data inconsistency", "looker studio"},
			Description: "Data inconsistencies in Looker Studio reports",
			Weight:      1.0,
		},
	}
}
