package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/yuichiro-h/ct-alarm-notifier/config"
	"github.com/yuichiro-h/ct-alarm-notifier/log"
	"go.uber.org/zap"
)

func main() {
	defer jsii.Close()

	filename := os.Getenv("NOTIFIER_CONFIG")
	if filename == "" {
		filename = "config.yml"
	}

	cfg, err := config.Load(filename)
	if err == nil {
		err = cfg.Stack.Validate()
	}
	if err != nil {
		log.Get().Error("error occurred", zap.String("cause", fmt.Sprintf("%+v", err)))
		os.Exit(1)
	}

	app := awscdk.NewApp(nil)
	NewAlertingStack(app, "CloudTrail-Alerting-Stack", &AlertingStackProps{
		StackProps: awscdk.StackProps{
			Env: &awscdk.Environment{
				Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
				Region:  jsii.String(os.Getenv("CDK_DEFAULT_REGION")),
			},
		},
		Config: cfg.Stack,
	})
	app.Synth(nil)
}
