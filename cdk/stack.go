package main

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssnssubscriptions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/yuichiro-h/ct-alarm-notifier/config"
)

type AlertingStackProps struct {
	awscdk.StackProps
	Config config.Stack
}

// NewAlertingStack declares the metric filters and alarms over the
// organization trail and the function notified when one of them fires.
func NewAlertingStack(scope constructs.Construct, id string, props *AlertingStackProps) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)
	cfg := props.Config

	slackSecret := awssecretsmanager.Secret_FromSecretNameV2(stack, jsii.String("SlackSecret"), jsii.String(cfg.SlackSecretName))

	// the topic is optional; without it the function only posts to Slack
	topicARN := jsii.String("")
	if cfg.SNS.Name != "" {
		topic := awssns.NewTopic(stack, jsii.String("AlertTopic"), &awssns.TopicProps{
			DisplayName: jsii.String(cfg.SNS.Name),
			TopicName:   jsii.String(cfg.SNS.Name),
		})
		for _, subscriber := range cfg.SNS.Subscribers {
			topic.AddSubscription(awssnssubscriptions.NewEmailSubscription(jsii.String(subscriber), nil))
		}
		topicARN = topic.TopicArn()
		awscdk.NewCfnOutput(stack, jsii.String("AlertTopicArn"), &awscdk.CfnOutputProps{
			Value: topicARN,
		})
	}

	// failed invocations, both undeliverable and failed asynchronous runs,
	// are parked here for the replay command
	dlq := awssqs.NewQueue(stack, jsii.String("NotifierDLQ"), &awssqs.QueueProps{
		Encryption:      awssqs.QueueEncryption_SQS_MANAGED,
		RetentionPeriod: awscdk.Duration_Days(jsii.Number(14)),
	})
	awscdk.NewCfnOutput(stack, jsii.String("NotifierDLQUrl"), &awscdk.CfnOutputProps{
		Value: dlq.QueueUrl(),
	})

	notifier := awslambda.NewFunction(stack, jsii.String("AlarmNotifier"), &awslambda.FunctionProps{
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_ARM_64(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(cfg.AssetPath), nil),
		MemorySize:   jsii.Number(128),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(15)),
		Environment: &map[string]*string{
			"INTERVAL":      jsii.String(strconv.FormatFloat(cfg.Interval, 'f', -1, 64)),
			"SLACK_SECRET":  jsii.String(cfg.SlackSecretName),
			"LOG_GROUP":     jsii.String(cfg.LogGroupName),
			"SNS_TOPIC_ARN": topicARN,
			"NAMESPACE":     jsii.String(cfg.Namespace),
		},
		DeadLetterQueue: dlq,
		RetryAttempts:   jsii.Number(2),
	})

	notifier.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"logs:FilterLogEvents",
			"logs:DescribeMetricFilters",
			"organizations:ListAccounts",
			"sns:Publish",
		),
		Resources: jsii.Strings("*"),
	}))
	notifier.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings("secretsmanager:GetSecretValue"),
		Resources: jsii.Strings(*slackSecret.SecretArn() + "*"),
	}))

	trail := awslogs.LogGroup_FromLogGroupName(stack, jsii.String("OrgLogGroup"), jsii.String(cfg.LogGroupName))

	alarmNames := make([]*string, 0, len(cfg.Alerts))
	for _, alert := range cfg.Alerts {
		addAlert(stack, trail, cfg.Namespace, alert)
		alarmNames = append(alarmNames, jsii.String(alert.Name))
	}

	awsevents.NewRule(stack, jsii.String("NotifyOnAlarms"), &awsevents.RuleProps{
		Description: jsii.String("Triggers Lambda to send notifications of CW Alarms trigger"),
		EventPattern: &awsevents.EventPattern{
			Source:     jsii.Strings("aws.cloudwatch"),
			DetailType: jsii.Strings("CloudWatch Alarm State Change"),
			Detail: &map[string]interface{}{
				"alarmName": alarmNames,
				"state": map[string]interface{}{
					"value": []string{"ALARM"},
				},
			},
		},
		Targets: &[]awsevents.IRuleTarget{
			awseventstargets.NewLambdaFunction(notifier, &awseventstargets.LambdaFunctionProps{
				DeadLetterQueue: dlq,
			}),
		},
	})

	return stack
}

// addAlert creates the metric filter and the alarm of one alert. The metric
// is named after the alarm, which is how the function finds the filter again.
func addAlert(stack awscdk.Stack, trail awslogs.ILogGroup, namespace string, alert config.Alert) {
	threshold := strconv.FormatFloat(alert.Threshold, 'f', -1, 64)

	mf := awslogs.NewMetricFilter(stack, jsii.String(fmt.Sprintf("%s-Metric", alert.Name)), &awslogs.MetricFilterProps{
		LogGroup:        trail,
		FilterPattern:   awslogs.FilterPattern_Literal(jsii.String(alert.Pattern)),
		MetricNamespace: jsii.String(namespace),
		MetricName:      jsii.String(alert.Name),
		MetricValue:     jsii.String(threshold),
		DefaultValue:    jsii.Number(0),
	})

	awscloudwatch.NewAlarm(stack, jsii.String(fmt.Sprintf("%s-Alarm", alert.Name)), &awscloudwatch.AlarmProps{
		AlarmName:         jsii.String(alert.Name),
		AlarmDescription:  jsii.String(alert.Description),
		Metric:            mf.Metric(&awscloudwatch.MetricOptions{Statistic: jsii.String("sum")}),
		Threshold:         jsii.Number(alert.Threshold),
		EvaluationPeriods: jsii.Number(1),
	})
}
