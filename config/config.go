package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultSlackSecret = "aws_status_slack_webhook"
	DefaultLogGroup    = "cloudtrail_log_group"
	DefaultInterval    = 5.0
	DefaultNamespace   = "CloudTrail Alert Metrics"
	DefaultLogLevel    = "info"
)

type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Notifier Notifier `yaml:"notifier"`
	Stack    Stack    `yaml:"stack"`
}

// Notifier is the configuration the function reads at runtime.
type Notifier struct {
	SlackSecret string  `yaml:"slack_secret"`
	LogGroup    string  `yaml:"log_group"`
	Interval    float64 `yaml:"interval"`
	SNSTopicARN string  `yaml:"sns_topic_arn"`
	Namespace   string  `yaml:"namespace"`

	// MetricNames maps an alarm name to the metric its filter publishes.
	// Alarms not listed use their own name.
	MetricNames map[string]string `yaml:"metric_names"`

	// AlarmPatterns restricts the alarms that are notified. Empty means all.
	AlarmPatterns []string `yaml:"alarm_patterns"`
}

// Stack is the configuration of the CDK app.
type Stack struct {
	SlackSecretName string  `yaml:"slack_secret_name"`
	LogGroupName    string  `yaml:"log_group_name"`
	Interval        float64 `yaml:"interval"`
	Namespace       string  `yaml:"namespace"`
	AssetPath       string  `yaml:"asset_path"`

	SNS struct {
		Name        string   `yaml:"name"`
		Subscribers []string `yaml:"subscribers"`
	} `yaml:"sns"`

	Alerts []Alert `yaml:"alerts"`
}

type Alert struct {
	Name        string  `yaml:"name"`
	Pattern     string  `yaml:"pattern"`
	Threshold   float64 `yaml:"threshold"`
	Description string  `yaml:"description"`
}

// MetricName returns the metric name whose filter backs the alarm.
func (n *Notifier) MetricName(alarmName string) string {
	if m, ok := n.MetricNames[alarmName]; ok && m != "" {
		return m
	}
	return alarmName
}

func New() *Config {
	c := &Config{LogLevel: DefaultLogLevel}
	c.Notifier.SlackSecret = DefaultSlackSecret
	c.Notifier.LogGroup = DefaultLogGroup
	c.Notifier.Interval = DefaultInterval
	c.Notifier.Namespace = DefaultNamespace
	c.Stack.Interval = DefaultInterval
	c.Stack.Namespace = DefaultNamespace
	c.Stack.SlackSecretName = DefaultSlackSecret
	c.Stack.AssetPath = "dist"
	return c
}

// Load reads the optional YAML file and then applies the environment on top.
func Load(filename string) (*Config, error) {
	c := New()

	if filename != "" {
		data, err := ioutil.ReadFile(filename)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ApplyEnv overrides the notifier settings with the variables the stack sets
// on the function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("SLACK_SECRET"); ok && v != "" {
		c.Notifier.SlackSecret = v
	}
	if v, ok := lookup("LOG_GROUP"); ok && v != "" {
		c.Notifier.LogGroup = v
	}
	if v, ok := lookup("NAMESPACE"); ok && v != "" {
		c.Notifier.Namespace = v
	}
	// an empty SNS_TOPIC_ARN disables the topic
	if v, ok := lookup("SNS_TOPIC_ARN"); ok {
		c.Notifier.SNSTopicARN = v
	}
	if v, ok := lookup("INTERVAL"); ok && v != "" {
		interval, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid INTERVAL %q", v)
		}
		c.Notifier.Interval = interval
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Notifier.Interval < 0 {
		return errors.Errorf("interval must not be negative: %v", c.Notifier.Interval)
	}
	if c.Notifier.LogGroup == "" {
		return errors.New("log group is required")
	}
	if c.Notifier.SlackSecret == "" {
		return errors.New("slack secret name is required")
	}
	if c.Notifier.Namespace == "" {
		return errors.New("metric namespace is required")
	}
	return nil
}

func (s *Stack) Validate() error {
	if s.LogGroupName == "" {
		return errors.New("stack.log_group_name is required")
	}
	if s.SlackSecretName == "" {
		return errors.New("stack.slack_secret_name is required")
	}
	if len(s.Alerts) == 0 {
		return errors.New("stack.alerts must not be empty")
	}
	seen := map[string]bool{}
	for _, a := range s.Alerts {
		if a.Name == "" || a.Pattern == "" {
			return errors.Errorf("alert %q needs a name and a pattern", a.Name)
		}
		if seen[a.Name] {
			return errors.Errorf("duplicate alert %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}
