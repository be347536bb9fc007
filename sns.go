package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/pkg/errors"
)

// SNS subjects must be shorter than 100 characters.
const maxSubjectLength = 99

type SNSPublisher struct {
	sns      snsiface.SNSAPI
	topicARN string
}

func NewSNSPublisher(client snsiface.SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{sns: client, topicARN: topicARN}
}

func (p *SNSPublisher) Publish(ctx context.Context, info *AlertInfo) error {
	subject, message, err := snsMessage(info)
	if err != nil {
		return err
	}

	_, err = p.sns.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(clip(subject, maxSubjectLength)),
		Message:  aws.String(message),
	})
	if err != nil {
		return errors.Wrapf(err, "publish to %s", p.topicARN)
	}

	return nil
}

func snsMessage(info *AlertInfo) (string, string, error) {
	subject := fmt.Sprintf("ALERT! The cloudtrail %s alarm has been activated!", info.Alarm)

	body := strings.Builder{}
	body.WriteString(subject + "\n")
	body.WriteString(info.Description + "\n")

	sections := []struct {
		title string
		v     interface{}
	}{
		{"Source Account:", info.Account},
		{"User Info:", info.User},
		{"Event Info:", info.Event},
	}
	for _, s := range sections {
		data, err := json.MarshalIndent(s.v, "", "    ")
		if err != nil {
			return "", "", errors.WithStack(err)
		}
		body.WriteString(s.title + "\n")
		body.Write(data)
		body.WriteString("\n")
	}

	return subject, body.String(), nil
}

// clip keeps at most n runes of s.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// topicRegion returns the region part of a topic ARN, or "" when the ARN
// cannot be parsed.
func topicRegion(topicARN string) string {
	a, err := arn.Parse(topicARN)
	if err != nil {
		return ""
	}
	return a.Region
}
