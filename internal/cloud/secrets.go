// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsSource implements notify.SecretsSource via Secrets Manager. The
// secret value is the raw webhook URL string.
type SecretsSource struct {
	client   *secretsmanager.Client
	secretID string
}

// NewSecretsSource creates a source reading one secret.
func NewSecretsSource(client *secretsmanager.Client, secretID string) *SecretsSource {
	return &SecretsSource{client: client, secretID: secretID}
}

// WebhookURL fetches the webhook URL. Fails if the secret is unknown,
// access is denied, or the value is empty.
func (s *SecretsSource) WebhookURL(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("secretsmanager get secret value: %w", err)
	}
	url := aws.ToString(out.SecretString)
	if url == "" {
		return "", fmt.Errorf("secret %s has no string value", s.secretID)
	}
	return url, nil
}
