// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"
)

// anthropicVersion pins the Bedrock message-API revision.
const anthropicVersion = "bedrock-2023-05-31"

// BedrockInvoker implements report.ModelInvoker via Bedrock's InvokeModel.
type BedrockInvoker struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockInvoker creates an invoker bound to one model.
func NewBedrockInvoker(client *bedrockruntime.Client, modelID string) *BedrockInvoker {
	return &BedrockInvoker{client: client, modelID: modelID}
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Invoke sends the prompt as a single user message and returns the first
// content block's text.
func (b *BedrockInvoker) Invoke(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Messages: []bedrockMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke model: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("bedrock parse response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("bedrock response contained no content blocks")
	}
	return resp.Content[0].Text, nil
}
