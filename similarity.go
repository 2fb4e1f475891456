package main

import (
	"log"
	"strings"
)

// sameSubmitterBonus is added when both tickets carry the same non-empty
// contact email; the combined similarity is capped at 1.0.
const sameSubmitterBonus = 0.3

// TicketSimilarity scores two tickets as Jaccard word overlap of their
// subjects plus the same-submitter bonus.
func TicketSimilarity(a, b Ticket) float64 {
	similarity := jaccardSimilarity(a.Subject, b.Subject)
	if a.Email != "" && a.Email == b.Email {
		similarity += sameSubmitterBonus
	}
	if similarity > 1.0 {
		similarity = 1.0
	}
	return similarity
}

// jaccardSimilarity is |intersection| / |union| over the lowercase
// whitespace-tokenized word sets; zero when either set is empty.
func jaccardSimilarity(a, b string) float64 {
	wordsA := tokenSet(a)
	wordsB := tokenSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// GroupSimilarTickets groups likely duplicates within one batch. Tickets
// are scanned in input order; an unassigned ticket seeds a group and
// every later unassigned ticket whose similarity to the seed meets the
// threshold joins it. Members are compared to the seed only, so the
// grouping is greedy rather than transitive: two tickets can be
// co-grouped without being directly similar to each other. Singletons
// are omitted.
func GroupSimilarTickets(tickets []Ticket, threshold float64) [][]Ticket {
	var groups [][]Ticket
	assigned := make(map[string]bool, len(tickets))

	for i, seed := range tickets {
		if assigned[seed.ID] {
			continue
		}
		group := []Ticket{seed}
		assigned[seed.ID] = true

		for _, other := range tickets[i+1:] {
			if assigned[other.ID] {
				continue
			}
			if TicketSimilarity(seed, other) >= threshold {
				group = append(group, other)
				assigned[other.ID] = true
			}
		}

		if len(group) > 1 {
			ids := make([]string, len(group))
			for j, t := range group {
				ids[j] = t.ID
			}
			log.Printf("Found %d similar tickets: %s", len(group), strings.Join(ids, ", "))
			groups = append(groups, group)
		}
	}
	return groups
}
