package main

import (
	"testing"
	"time"
)

func TestTicketSearchText(t *testing.T) {
	ticket := Ticket{Subject: "Power CUT", Description: "In Room 101"}
	if got := ticket.SearchText(); got != "power cut in room 101" {
		t.Fatalf("unexpected search text: %q", got)
	}
}

func TestLookbackCutoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	got := LookbackCutoff(now, 24)
	want := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("LookbackCutoff = %v, want %v", got, want)
	}
}
