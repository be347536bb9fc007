package main

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// AlarmStateChange is the detail of a "CloudWatch Alarm State Change" event.
type AlarmStateChange struct {
	AlarmName     string             `json:"alarmName"`
	State         AlarmState         `json:"state"`
	PreviousState AlarmState         `json:"previousState"`
	Configuration AlarmConfiguration `json:"configuration"`
}

type AlarmState struct {
	Value      string `json:"value"`
	Reason     string `json:"reason"`
	Timestamp  string `json:"timestamp"`
	ReasonData string `json:"reasonData"`
}

type AlarmConfiguration struct {
	Description string `json:"description"`
}

// AlarmEvent identifies the alarm that fired.
type AlarmEvent struct {
	Name        string
	Description string
	State       string
}

func parseAlarmEvent(ev events.CloudWatchEvent) (AlarmEvent, error) {
	if len(ev.Detail) == 0 {
		return AlarmEvent{}, errors.Errorf("event %s has no detail", ev.ID)
	}

	var detail AlarmStateChange
	if err := json.Unmarshal(ev.Detail, &detail); err != nil {
		return AlarmEvent{}, errors.Wrapf(err, "decode detail of event %s", ev.ID)
	}
	if detail.AlarmName == "" {
		return AlarmEvent{}, errors.Errorf("event %s has no alarmName", ev.ID)
	}

	return AlarmEvent{
		Name:        detail.AlarmName,
		Description: detail.Configuration.Description,
		State:       detail.State.Value,
	}, nil
}
