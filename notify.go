package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts cycle summaries to a channel. A nil notifier (no
// token or channel configured) drops every post silently.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

func NewSlackNotifier(cfg Config) *SlackNotifier {
	if !cfg.SlackConfigured() {
		log.Println("Slack notifications disabled (slack_bot_token / slack_channel_id not set)")
		return nil
	}
	return &SlackNotifier{
		api:       slack.New(cfg.SlackBotToken),
		channelID: cfg.SlackChannelID,
	}
}

func (n *SlackNotifier) PostSyncSummary(result SyncResult, syncErr error) {
	if n == nil {
		return
	}

	msg := FormatSyncSummary(result)
	if syncErr != nil {
		msg = fmt.Sprintf("Sync failed: %v", syncErr)
	}

	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		log.Printf("Slack post error: %v", err)
	}
}
