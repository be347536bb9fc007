package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

const alertEmoji = ":warning:"

type SlackNotifier struct {
	httpClient *http.Client
}

func NewSlackNotifier() *SlackNotifier {
	return &SlackNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the alert to a Slack incoming webhook.
func (n *SlackNotifier) Send(ctx context.Context, webhookURL string, info *AlertInfo) error {
	if webhookURL == "" {
		return errors.New("slack webhook url is required")
	}

	msg := slackMessage(info)
	if err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, n.httpClient, msg); err != nil {
		return errors.Wrap(err, "post slack webhook")
	}

	return nil
}

func slackMessage(info *AlertInfo) *slack.WebhookMessage {
	markdown := func(text string) *slack.TextBlockObject {
		return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
	}

	header := markdown(fmt.Sprintf("%s *%s triggered on %s*", alertEmoji, info.Alarm, info.Event.Name))
	description := markdown(fmt.Sprintf("_%s_", info.Description))
	fields := []*slack.TextBlockObject{
		markdown(fmt.Sprintf("*Acct Name: %s*", info.Account.Name)),
		markdown(fmt.Sprintf("*Region: %s*", info.Event.Region)),
		markdown(fmt.Sprintf("*Acct ID: #-%s*", maskAccountID(info.Account.ID))),
		markdown(fmt.Sprintf("*Root Email: %s*", info.Account.Email)),
	}
	footer := markdown(fmt.Sprintf("User: *%s* executed _%s_ on service _%s_ at *%s*",
		info.User.Name, info.Event.Name, info.Event.Source, info.Event.Time))

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("%s *Alarm %s*", alertEmoji, info.Alarm),
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(header, nil, nil),
				slack.NewDividerBlock(),
				slack.NewSectionBlock(description, nil, nil),
				slack.NewDividerBlock(),
				slack.NewSectionBlock(nil, fields, nil),
				slack.NewDividerBlock(),
				slack.NewSectionBlock(footer, nil, nil),
			},
		},
	}
}

// maskAccountID keeps the last four characters of the id.
func maskAccountID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}
