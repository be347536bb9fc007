package main

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs/cloudwatchlogsiface"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/aws/aws-sdk-go/service/organizations/organizationsiface"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

const testIAMLog = `{
    "eventVersion": "1.0",
    "userIdentity": {
        "type": "IAMUser",
        "principalId": "EX_PRINCIPAL_ID",
        "arn": "arn:aws:iam::123456789012:user/Alice",
        "accountId": "123456789012",
        "accessKeyId": "EXAMPLE_KEY_ID",
        "userName": "Alice"
    },
    "eventTime": "2014-03-24T21:11:59Z",
    "eventSource": "iam.amazonaws.com",
    "eventName": "CreateUser",
    "awsRegion": "us-east-2",
    "sourceIPAddress": "127.0.0.1",
    "userAgent": "aws-cli/1.3.2 Python/2.7.5 Windows/7",
    "requestParameters": {"userName": "Bob"},
    "responseElements": {
        "user": {
            "createDate": "Mar 24, 2014 9:11:59 PM",
            "userName": "Bob",
            "arn": "arn:aws:iam::123456789012:user/Bob",
            "path": "/",
            "userId": "EXAMPLEUSERID"
        }
    }
}`

type fakeLogs struct {
	cloudwatchlogsiface.CloudWatchLogsAPI

	filters []*cloudwatchlogs.MetricFilter
	pages   [][]*cloudwatchlogs.FilteredLogEvent

	describeErr error
	filterErr   error

	describeIn *cloudwatchlogs.DescribeMetricFiltersInput
	filterIn   *cloudwatchlogs.FilterLogEventsInput
	filterCall int
}

func (f *fakeLogs) DescribeMetricFiltersWithContext(ctx aws.Context, in *cloudwatchlogs.DescribeMetricFiltersInput, _ ...request.Option) (*cloudwatchlogs.DescribeMetricFiltersOutput, error) {
	f.describeIn = in
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &cloudwatchlogs.DescribeMetricFiltersOutput{MetricFilters: f.filters}, nil
}

func (f *fakeLogs) FilterLogEventsPagesWithContext(ctx aws.Context, in *cloudwatchlogs.FilterLogEventsInput, fn func(*cloudwatchlogs.FilterLogEventsOutput, bool) bool, _ ...request.Option) error {
	f.filterIn = in
	f.filterCall++
	if f.filterErr != nil {
		return f.filterErr
	}
	for i, p := range f.pages {
		if !fn(&cloudwatchlogs.FilterLogEventsOutput{Events: p}, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func metricFilter(pattern string) []*cloudwatchlogs.MetricFilter {
	return []*cloudwatchlogs.MetricFilter{{
		FilterName:    aws.String("filter"),
		FilterPattern: aws.String(pattern),
		LogGroupName:  aws.String("cloudtrail_log_group"),
	}}
}

func logEvents(messages ...string) []*cloudwatchlogs.FilteredLogEvent {
	var events []*cloudwatchlogs.FilteredLogEvent
	for _, m := range messages {
		events = append(events, &cloudwatchlogs.FilteredLogEvent{Message: aws.String(m)})
	}
	return events
}

type fakeOrganizations struct {
	organizationsiface.OrganizationsAPI

	pages [][]*organizations.Account
	err   error
	calls int
}

func (f *fakeOrganizations) ListAccountsPagesWithContext(ctx aws.Context, in *organizations.ListAccountsInput, fn func(*organizations.ListAccountsOutput, bool) bool, _ ...request.Option) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for i, p := range f.pages {
		if !fn(&organizations.ListAccountsOutput{Accounts: p}, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func account(id, name, email string) *organizations.Account {
	return &organizations.Account{Id: aws.String(id), Name: aws.String(name), Email: aws.String(email)}
}

type fakeSecrets struct {
	secretsmanageriface.SecretsManagerAPI

	value *secretsmanager.GetSecretValueOutput
	err   error
	in    *secretsmanager.GetSecretValueInput
}

func (f *fakeSecrets) GetSecretValueWithContext(ctx aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func secretString(s string) *secretsmanager.GetSecretValueOutput {
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(s)}
}

type fakeSNS struct {
	snsiface.SNSAPI

	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) PublishWithContext(ctx aws.Context, in *sns.PublishInput, _ ...request.Option) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("message-id")}, nil
}

type stubResolver struct {
	name, email string
	err         error
	ids         []string
}

func (r *stubResolver) Resolve(ctx context.Context, accountID string) (string, string, error) {
	r.ids = append(r.ids, accountID)
	return r.name, r.email, r.err
}

type recordingPublisher struct {
	infos []*AlertInfo
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, info *AlertInfo) error {
	p.infos = append(p.infos, info)
	return p.err
}

type recordingChat struct {
	urls  []string
	infos []*AlertInfo
	err   error
}

func (c *recordingChat) Send(ctx context.Context, webhookURL string, info *AlertInfo) error {
	c.urls = append(c.urls, webhookURL)
	c.infos = append(c.infos, info)
	return c.err
}
