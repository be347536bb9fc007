package main

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs/cloudwatchlogsiface"
	"github.com/pkg/errors"
	"github.com/yuichiro-h/ct-alarm-notifier/config"
	"go.uber.org/zap"
)

// startTime returns the epoch milliseconds of the given number of minutes
// before now.
func startTime(now time.Time, minutes float64) int64 {
	since := now.UTC().Add(-time.Duration(minutes * float64(time.Minute)))
	return since.UnixNano() / int64(time.Millisecond)
}

// LogCorrelator finds the log record that tripped an alarm's metric filter.
type LogCorrelator struct {
	cwl cloudwatchlogsiface.CloudWatchLogsAPI
	cfg *config.Notifier
	now func() time.Time
	log *zap.Logger
}

func NewLogCorrelator(cwl cloudwatchlogsiface.CloudWatchLogsAPI, cfg *config.Notifier, logger *zap.Logger) *LogCorrelator {
	return &LogCorrelator{
		cwl: cwl,
		cfg: cfg,
		now: time.Now,
		log: logger,
	}
}

// Find returns the newest matching event, or nil when the alarm has no metric
// filter, nothing matched inside the window or the newest match is an empty
// record.
func (c *LogCorrelator) Find(ctx context.Context, alarmName string) (*LogEvent, error) {
	metricName := c.cfg.MetricName(alarmName)

	descMetricFiltersOut, err := c.cwl.DescribeMetricFiltersWithContext(ctx, &cloudwatchlogs.DescribeMetricFiltersInput{
		MetricNamespace: aws.String(c.cfg.Namespace),
		MetricName:      aws.String(metricName),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describe metric filters of %s/%s", c.cfg.Namespace, metricName)
	}
	if len(descMetricFiltersOut.MetricFilters) == 0 {
		c.log.Warn("not found metric filter",
			zap.String("metric_namespace", c.cfg.Namespace),
			zap.String("metric_name", metricName))
		return nil, nil
	}
	filter := descMetricFiltersOut.MetricFilters[0]
	pattern := aws.StringValue(filter.FilterPattern)

	c.log.Debug("get metric filter",
		zap.String("metric_namespace", c.cfg.Namespace),
		zap.String("metric_name", metricName),
		zap.String("filter", pattern))

	since := startTime(c.now(), c.cfg.Interval)

	var newest *cloudwatchlogs.FilteredLogEvent
	var count int
	err = c.cwl.FilterLogEventsPagesWithContext(ctx, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(c.cfg.LogGroup),
		FilterPattern: aws.String(pattern),
		StartTime:     aws.Int64(since),
	}, func(out *cloudwatchlogs.FilterLogEventsOutput, lastPage bool) bool {
		if len(out.Events) > 0 {
			newest = out.Events[len(out.Events)-1]
			count += len(out.Events)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "filter log events of %s", c.cfg.LogGroup)
	}

	c.log.Info("get log event",
		zap.String("log_group", c.cfg.LogGroup),
		zap.Int64("start_time", since),
		zap.Int("count", count))

	if newest == nil {
		return nil, nil
	}

	ev, err := parseLogEvent(aws.StringValue(newest.Message))
	if err != nil {
		return nil, err
	}
	if ev.isZero() {
		c.log.Warn("matched log event is empty", zap.String("log_group", c.cfg.LogGroup))
		return nil, nil
	}
	return ev, nil
}
