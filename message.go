package main

import (
	"context"

	"github.com/pkg/errors"
)

// AlertInfo is the record both the topic and Slack are sent.
type AlertInfo struct {
	Alarm       string          `json:"alarm"`
	Description string          `json:"description"`
	Account     AccountMetadata `json:"account"`
	User        UserInfo        `json:"user"`
	Event       EventInfo       `json:"event"`
}

type UserInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

type EventInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Region string `json:"region"`
	Time   string `json:"time"`
}

func formatMessage(ctx context.Context, resolver AccountResolver, alarm AlarmEvent, ev *LogEvent) (*AlertInfo, error) {
	identity := ev.identity()

	name, email, err := resolver.Resolve(ctx, identity.AccountID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve account %s", identity.AccountID)
	}

	info := &AlertInfo{
		Alarm:       alarm.Name,
		Description: alarm.Description,
		Account: AccountMetadata{
			ID:    identity.AccountID,
			Name:  name,
			Email: email,
		},
		User: UserInfo{
			Name: identity.UserName,
			Type: identity.Type,
			Key:  identity.AccessKeyID,
		},
	}
	if ev != nil {
		info.Event = EventInfo{
			Name:   ev.EventName,
			Source: ev.EventSource,
			Region: ev.AWSRegion,
			Time:   ev.EventTime,
		}
	}

	return info, nil
}
