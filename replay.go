package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type eventHandler interface {
	Handle(ctx context.Context, event events.CloudWatchEvent) error
}

type replayResult struct {
	Replayed int
	Failed   int
}

// replay feeds the events parked in the dead-letter queue back through the
// handler. A message is deleted only after it was handled; failures stay in
// the queue for the next run.
func replay(ctx context.Context, sqsCli sqsiface.SQSAPI, queueURL string, h eventHandler, logger *zap.Logger) (replayResult, error) {
	var result replayResult
	seen := map[string]bool{}

	for {
		receiveMessageOut, err := sqsCli.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			MaxNumberOfMessages: aws.Int64(10),
			QueueUrl:            aws.String(queueURL),
		})
		if err != nil {
			return result, errors.WithStack(err)
		}
		if len(receiveMessageOut.Messages) == 0 {
			logger.Debug("not found messages", zap.String("queue_url", queueURL))
			break
		}

		var fresh int
		for _, msg := range receiveMessageOut.Messages {
			id := aws.StringValue(msg.MessageId)
			if seen[id] {
				continue
			}
			seen[id] = true
			fresh++

			if err := replayMessage(ctx, h, msg); err != nil {
				result.Failed++
				logger.Error("failed to replay message",
					zap.String("message_id", id),
					zap.String("cause", err.Error()))
				continue
			}

			_, err = sqsCli.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			})
			if err != nil {
				logger.Error(err.Error(), zap.String("message_id", id))
				continue
			}
			result.Replayed++
		}

		// only redeliveries of failed messages are left
		if fresh == 0 {
			break
		}
	}

	logger.Info("replay finished",
		zap.String("queue_url", queueURL),
		zap.Int("replayed", result.Replayed),
		zap.Int("failed", result.Failed))

	return result, nil
}

func replayMessage(ctx context.Context, h eventHandler, msg *sqs.Message) error {
	var event events.CloudWatchEvent
	if err := json.Unmarshal([]byte(aws.StringValue(msg.Body)), &event); err != nil {
		return errors.Wrap(err, "decode event")
	}
	return h.Handle(ctx, event)
}
