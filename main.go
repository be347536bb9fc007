package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/yuichiro-h/ct-alarm-notifier/config"
	"github.com/yuichiro-h/ct-alarm-notifier/log"
	"go.uber.org/zap"
)

func main() {
	var cfg *config.Config

	app := cli.NewApp()
	app.Name = "ct-alarm-notifier"
	app.Usage = "notify Slack and SNS of CloudTrail metric filter alarms"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			EnvVar: "NOTIFIER_CONFIG",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		c, err := config.Load(ctx.GlobalString("config"))
		if err != nil {
			return err
		}
		if err := log.Init(c.LogLevel, c.Debug); err != nil {
			return err
		}
		cfg = c

		return nil
	}
	app.Action = func(ctx *cli.Context) error {
		h, sess, err := newAlarmHandler(cfg)
		if err != nil {
			return err
		}
		log.Get().Info("start lambda handler", zap.String("region", aws.StringValue(sess.Config.Region)))
		lambda.Start(h.Handle)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "invoke",
			Usage: "handle a single alarm event read from a file (- for stdin)",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "event", Value: "-"},
			},
			Action: func(ctx *cli.Context) error {
				event, err := readEvent(ctx.String("event"))
				if err != nil {
					return err
				}
				h, _, err := newAlarmHandler(cfg)
				if err != nil {
					return err
				}
				return h.Handle(context.Background(), event)
			},
		},
		{
			Name:  "replay",
			Usage: "handle the events parked in the dead-letter queue",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "queue-url", EnvVar: "DLQ_URL"},
			},
			Action: func(ctx *cli.Context) error {
				queueURL := ctx.String("queue-url")
				if queueURL == "" {
					return errors.New("--queue-url is required")
				}
				h, sess, err := newAlarmHandler(cfg)
				if err != nil {
					return err
				}
				result, err := replay(context.Background(), sqs.New(sess), queueURL, h, log.Get())
				if err != nil {
					return err
				}
				if result.Failed > 0 {
					return errors.Errorf("%d messages failed to replay", result.Failed)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Get().Error("error occurred", zap.String("cause", fmt.Sprintf("%+v", err)))
		os.Exit(1)
	}
}

func newAlarmHandler(cfg *config.Config) (*AlarmHandler, *session.Session, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	deps := Dependencies{
		Secrets:  secretsmanager.New(sess),
		Logs:     NewLogCorrelator(cloudwatchlogs.New(sess), &cfg.Notifier, log.Get()),
		Accounts: NewOrganizationsResolver(organizations.New(sess)),
		Chat:     NewSlackNotifier(),
	}
	if topicARN := cfg.Notifier.SNSTopicARN; topicARN != "" {
		snsConfig := aws.NewConfig()
		if region := topicRegion(topicARN); region != "" {
			snsConfig = snsConfig.WithRegion(region)
		}
		deps.Topic = NewSNSPublisher(sns.New(sess, snsConfig), topicARN)
	}

	h, err := NewAlarmHandler(&cfg.Notifier, deps, log.Get())
	if err != nil {
		return nil, nil, err
	}
	return h, sess, nil
}

func readEvent(filename string) (events.CloudWatchEvent, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = ioutil.ReadAll(os.Stdin)
	} else {
		data, err = ioutil.ReadFile(filename)
	}
	if err != nil {
		return events.CloudWatchEvent{}, errors.WithStack(err)
	}

	var event events.CloudWatchEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return events.CloudWatchEvent{}, errors.Wrapf(err, "decode event %s", filename)
	}
	return event, nil
}
