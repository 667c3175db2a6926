package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// invoker is the part of the bedrockruntime client used here
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the ModelClient interface using Amazon Bedrock
type BedrockClient struct {
	client  invoker
	modelID string
	logger  *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(client invoker, modelID string, logger *zap.Logger) *BedrockClient {
	return &BedrockClient{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

// Model returns the default model identifier
func (c *BedrockClient) Model() string {
	return c.modelID
}

// Complete invokes the model with a payload shaped for its family
func (c *BedrockClient) Complete(ctx context.Context, req core.ModelRequest) (string, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = c.modelID
	}

	payload, err := buildPayload(modelID, req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", classify(ctx, err)
	}

	text, err := parseResponse(modelID, resp.Body)
	if err != nil {
		return "", core.NewCallError(core.KindMalformedResponse, err)
	}

	c.logger.Debug("Bedrock model invoked", zap.String("model", modelID), zap.Int("length", len(text)))
	return text, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func isAnthropicModel(modelID string) bool {
	return strings.Contains(modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func isAmazonTitanModel(modelID string) bool {
	return strings.HasPrefix(modelID, "amazon.titan")
}

func buildPayload(modelID string, req core.ModelRequest) ([]byte, error) {
	switch {
	case isAnthropicModel(modelID):
		body := map[string]any{
			"anthropic_version": anthropicVersion,
			"max_tokens":        req.MaxTokens,
			"temperature":       req.Temperature,
			"messages": []map[string]any{
				{
					"role":    "user",
					"content": []map[string]string{{"type": "text", "text": req.Prompt}},
				},
			},
		}
		if req.System != "" {
			body["system"] = req.System
		}
		return json.Marshal(body)
	case isAmazonTitanModel(modelID):
		return json.Marshal(map[string]any{
			"inputText": joinPrompt(req),
			"textGenerationConfig": map[string]any{
				"maxTokenCount": req.MaxTokens,
				"temperature":   req.Temperature,
			},
		})
	default:
		return json.Marshal(map[string]any{
			"prompt":      joinPrompt(req),
			"max_tokens":  req.MaxTokens,
			"temperature": req.Temperature,
		})
	}
}

func joinPrompt(req core.ModelRequest) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\n" + req.Prompt
}

func parseResponse(modelID string, body []byte) (string, error) {
	var text string
	switch {
	case isAnthropicModel(modelID):
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		text = b.String()
	case isAmazonTitanModel(modelID):
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) > 0 {
			text = titanResp.Results[0].OutputText
		}
	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if candidate != "" {
				text = candidate
				break
			}
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty response from Bedrock model")
	}
	return text, nil
}

// classify maps a Bedrock failure onto a call kind
func classify(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("failed to invoke Bedrock model: %w", err)

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceQuotaExceededException", "TooManyRequestsException":
			return core.NewCallError(core.KindRateLimited, wrapped)
		case "ModelTimeoutException":
			return core.NewCallError(core.KindTimeout, wrapped)
		}
		return core.NewCallError(core.KindTransport, wrapped)
	}

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return core.NewCallError(core.KindTimeout, wrapped)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.NewCallError(core.KindTimeout, wrapped)
	}

	return core.NewCallError(core.KindTransport, wrapped)
}
