package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadKnowledgeBaseCSV parses knowledge base entries from a CSV file
// with columns: category, team, keywords, description, weight. Keywords
// are separated by ';' within the cell. Description and weight are
// optional; a header row is detected and skipped.
func LoadKnowledgeBaseCSV(path string) ([]KnowledgeBaseEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // optional trailing columns
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var entries []KnowledgeBaseEntry
	for i, record := range records {
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: need at least category, team, keywords", i+1)
		}
		category := strings.TrimSpace(record[0])
		team := strings.TrimSpace(record[1])

		if i == 0 && strings.EqualFold(category, "category") {
			continue
		}
		if category == "" || team == "" {
			return nil, fmt.Errorf("row %d: empty category or team", i+1)
		}

		var keywords []string
		for _, kw := range strings.Split(record[2], ";") {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}

		entry := KnowledgeBaseEntry{
			Category: category,
			Team:     team,
			Keywords: keywords,
			Weight:   1.0,
		}
		if len(record) > 3 {
			entry.Description = strings.TrimSpace(record[3])
		}
		if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
			weight, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad weight %q: %w", i+1, record[4], err)
			}
			if weight <= 0 {
				return nil, fmt.Errorf("row %d: weight must be positive, got %g", i+1, weight)
			}
			entry.Weight = weight
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries found in %s", path)
	}
	return entries, nil
}
