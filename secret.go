package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/pkg/errors"
)

type webhookSecret struct {
	URL string `json:"url"`
}

// webhookURL reads the Slack webhook URL stored under the "url" key of a JSON
// secret.
func webhookURL(ctx context.Context, sm secretsmanageriface.SecretsManagerAPI, secretName string) (string, error) {
	out, err := sm.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", errors.Wrapf(err, "get secret %s", secretName)
	}

	data := []byte(aws.StringValue(out.SecretString))
	if out.SecretString == nil {
		data = out.SecretBinary
	}

	var s webhookSecret
	if err := json.Unmarshal(data, &s); err != nil {
		return "", errors.Wrapf(err, "decode secret %s", secretName)
	}
	if s.URL == "" {
		return "", errors.Errorf("secret %s has no url", secretName)
	}

	return s.URL, nil
}
