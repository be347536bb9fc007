package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestNewDefaults(t *testing.T) {
	c := New()

	assert.Equal(t, DefaultSlackSecret, c.Notifier.SlackSecret)
	assert.Equal(t, DefaultLogGroup, c.Notifier.LogGroup)
	assert.Equal(t, 5.0, c.Notifier.Interval)
	assert.Equal(t, "CloudTrail Alert Metrics", c.Notifier.Namespace)
	assert.Empty(t, c.Notifier.SNSTopicARN)
	assert.NoError(t, c.Validate())
}

func TestApplyEnv(t *testing.T) {
	c := New()
	err := c.ApplyEnv(lookupFrom(map[string]string{
		"SLACK_SECRET":  "slack/webhook",
		"LOG_GROUP":     "org-trail",
		"INTERVAL":      "2.5",
		"SNS_TOPIC_ARN": "arn:aws:sns:us-east-1:123456789012:alerts",
		"NAMESPACE":     "Trail",
		"LOG_LEVEL":     "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "slack/webhook", c.Notifier.SlackSecret)
	assert.Equal(t, "org-trail", c.Notifier.LogGroup)
	assert.Equal(t, 2.5, c.Notifier.Interval)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:alerts", c.Notifier.SNSTopicARN)
	assert.Equal(t, "Trail", c.Notifier.Namespace)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestApplyEnvEmptyTopicDisablesSNS(t *testing.T) {
	c := New()
	c.Notifier.SNSTopicARN = "arn:aws:sns:us-east-1:123456789012:from-file"

	require.NoError(t, c.ApplyEnv(lookupFrom(map[string]string{"SNS_TOPIC_ARN": ""})))
	assert.Empty(t, c.Notifier.SNSTopicARN)
}

func TestApplyEnvInvalidInterval(t *testing.T) {
	c := New()
	err := c.ApplyEnv(lookupFrom(map[string]string{"INTERVAL": "five"}))
	assert.Error(t, err)
}

func TestValidateNegativeInterval(t *testing.T) {
	c := New()
	c.Notifier.Interval = -1
	assert.Error(t, c.Validate())
}

func TestMetricName(t *testing.T) {
	n := Notifier{MetricNames: map[string]string{"root-login": "RootLoginCount"}}

	assert.Equal(t, "RootLoginCount", n.MetricName("root-login"))
	assert.Equal(t, "iam-change", n.MetricName("iam-change"))
}

func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "config.yml")
	data := `
log_level: warn
notifier:
  log_group: file-trail
  interval: 10
  alarm_patterns:
    - "cis-*"
stack:
  log_group_name: file-trail
  sns:
    name: alerts
    subscribers:
      - ops@example.com
  alerts:
    - name: root-login
      pattern: '{ $.userIdentity.type = "Root" }'
      threshold: 1
      description: Root account used
`
	require.NoError(t, ioutil.WriteFile(filename, []byte(data), 0600))

	c, err := Load(filename)
	require.NoError(t, err)

	assert.Equal(t, "file-trail", c.Notifier.LogGroup)
	assert.Equal(t, []string{"cis-*"}, c.Notifier.AlarmPatterns)
	assert.Equal(t, DefaultNamespace, c.Notifier.Namespace)
	require.Len(t, c.Stack.Alerts, 1)
	assert.Equal(t, "root-login", c.Stack.Alerts[0].Name)
	assert.Equal(t, []string{"ops@example.com"}, c.Stack.SNS.Subscribers)
	assert.NoError(t, c.Stack.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(os.TempDir(), "does-not-exist.yml"))
	assert.Error(t, err)
}

func TestStackValidate(t *testing.T) {
	s := Stack{LogGroupName: "trail", SlackSecretName: "slack"}
	assert.Error(t, s.Validate())

	s.Alerts = []Alert{{Name: "a", Pattern: "p"}, {Name: "a", Pattern: "q"}}
	assert.Error(t, s.Validate())

	s.Alerts = s.Alerts[:1]
	assert.NoError(t, s.Validate())
}
