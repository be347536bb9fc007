package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/yuichiro-h/ct-alarm-notifier/config"
	"go.uber.org/zap"
)

type logFinder interface {
	Find(ctx context.Context, alarmName string) (*LogEvent, error)
}

type publisher interface {
	Publish(ctx context.Context, info *AlertInfo) error
}

type chatSender interface {
	Send(ctx context.Context, webhookURL string, info *AlertInfo) error
}

// Dependencies are the collaborators a Handler calls.
type Dependencies struct {
	Secrets  secretsmanageriface.SecretsManagerAPI
	Logs     logFinder
	Accounts AccountResolver
	Topic    publisher
	Chat     chatSender
}

type AlarmHandler struct {
	cfg    *config.Notifier
	deps   Dependencies
	alarms []glob.Glob
	log    *zap.Logger
}

func NewAlarmHandler(cfg *config.Notifier, deps Dependencies, logger *zap.Logger) (*AlarmHandler, error) {
	h := &AlarmHandler{
		cfg:  cfg,
		deps: deps,
		log:  logger,
	}
	for _, p := range cfg.AlarmPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid alarm pattern %q", p)
		}
		h.alarms = append(h.alarms, g)
	}
	return h, nil
}

// Handle processes one alarm state change. It returns nil without notifying
// when no log event matches the alarm's filter.
func (h *AlarmHandler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	logger := h.log.With(zap.String("event_id", event.ID))
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(zap.String("request_id", lc.AwsRequestID))
	}

	alarm, err := parseAlarmEvent(event)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("alarm", alarm.Name))
	logger.Info("receive alarm", zap.String("state", alarm.State))

	if !h.accepts(alarm.Name) {
		logger.Info("skip alarm not matching alarm patterns", zap.Strings("patterns", h.cfg.AlarmPatterns))
		return nil
	}

	url, err := webhookURL(ctx, h.deps.Secrets, h.cfg.SlackSecret)
	if err != nil {
		return err
	}

	logEvent, err := h.deps.Logs.Find(ctx, alarm.Name)
	if err != nil {
		return err
	}
	if logEvent == nil {
		logger.Info("not found matching log event")
		return nil
	}

	logger.Debug("matching event found, sending notifications",
		zap.String("event_name", logEvent.EventName),
		zap.String("event_time", logEvent.EventTime))

	info, err := formatMessage(ctx, h.deps.Accounts, alarm, logEvent)
	if err != nil {
		return err
	}

	if h.cfg.SNSTopicARN != "" {
		if err := h.deps.Topic.Publish(ctx, info); err != nil {
			return err
		}
		logger.Info("publish alert", zap.String("topic_arn", h.cfg.SNSTopicARN))
	}

	if err := h.deps.Chat.Send(ctx, url, info); err != nil {
		return err
	}
	logger.Info("notify slack",
		zap.String("account_id", info.Account.ID),
		zap.String("event_name", info.Event.Name))

	return nil
}

func (h *AlarmHandler) accepts(alarmName string) bool {
	if len(h.alarms) == 0 {
		return true
	}
	for _, g := range h.alarms {
		if g.Match(alarmName) {
			return true
		}
	}
	return false
}
