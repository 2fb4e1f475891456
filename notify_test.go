package main

import (
	"errors"
	"testing"
)

func TestNilNotifierIsSafe(t *testing.T) {
	var n *SlackNotifier
	n.PostSyncSummary(SyncResult{TotalFetched: 1, Success: 1}, nil)
	n.PostSyncSummary(SyncResult{}, errors.New("fetch failed"))
}

func TestNewSlackNotifierUnconfigured(t *testing.T) {
	if n := NewSlackNotifier(Config{}); n != nil {
		t.Fatal("notifier must be nil when Slack is not configured")
	}
	cfg := Config{SlackBotToken: "xoxb-test", SlackChannelID: "C012345"}
	if n := NewSlackNotifier(cfg); n == nil {
		t.Fatal("notifier must be created when token and channel are set")
	}
}
