package main

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// LogEvent is the subset of a CloudTrail record the notifier reads.
// Keys absent from the record, or holding something other than a string,
// decode to empty strings.
type LogEvent struct {
	EventVersion    string        `json:"eventVersion"`
	UserIdentity    *UserIdentity `json:"userIdentity"`
	EventTime       string        `json:"eventTime"`
	EventSource     string        `json:"eventSource"`
	EventName       string        `json:"eventName"`
	AWSRegion       string        `json:"awsRegion"`
	SourceIPAddress string        `json:"sourceIPAddress"`
	UserAgent       string        `json:"userAgent"`
}

type UserIdentity struct {
	Type        string `json:"type"`
	PrincipalID string `json:"principalId"`
	ARN         string `json:"arn"`
	AccountID   string `json:"accountId"`
	AccessKeyID string `json:"accessKeyId"`
	UserName    string `json:"userName"`
}

type rawRecord map[string]json.RawMessage

func (r rawRecord) str(key string) string {
	var s string
	if err := json.Unmarshal(r[key], &s); err != nil {
		return ""
	}
	return s
}

func (e *LogEvent) UnmarshalJSON(data []byte) error {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	*e = LogEvent{
		EventVersion:    r.str("eventVersion"),
		EventTime:       r.str("eventTime"),
		EventSource:     r.str("eventSource"),
		EventName:       r.str("eventName"),
		AWSRegion:       r.str("awsRegion"),
		SourceIPAddress: r.str("sourceIPAddress"),
		UserAgent:       r.str("userAgent"),
	}

	// a userIdentity that is not an object is dropped
	var identity rawRecord
	if json.Unmarshal(r["userIdentity"], &identity) == nil && identity != nil {
		e.UserIdentity = identity.userIdentity()
	}
	return nil
}

func (u *UserIdentity) UnmarshalJSON(data []byte) error {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*u = *r.userIdentity()
	return nil
}

func (r rawRecord) userIdentity() *UserIdentity {
	return &UserIdentity{
		Type:        r.str("type"),
		PrincipalID: r.str("principalId"),
		ARN:         r.str("arn"),
		AccountID:   r.str("accountId"),
		AccessKeyID: r.str("accessKeyId"),
		UserName:    r.str("userName"),
	}
}

// isZero reports whether the record carried none of the fields above.
func (e *LogEvent) isZero() bool {
	return e == nil || *e == LogEvent{}
}

func parseLogEvent(message string) (*LogEvent, error) {
	var ev LogEvent
	if err := json.Unmarshal([]byte(message), &ev); err != nil {
		return nil, errors.Wrap(err, "decode log event message")
	}
	return &ev, nil
}

// identity never returns nil.
func (e *LogEvent) identity() UserIdentity {
	if e == nil || e.UserIdentity == nil {
		return UserIdentity{}
	}
	return *e.UserIdentity
}
