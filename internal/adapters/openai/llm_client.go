package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// chatCompleter is the part of the go-openai client used here
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient is an implementation of the ModelClient interface using OpenAI
// or any OpenAI-compatible endpoint
type OpenAIClient struct {
	client    chatCompleter
	modelName string
	logger    *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(client chatCompleter, modelName string, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}
}

// Model returns the default model name
func (c *OpenAIClient) Model() string {
	return c.modelName
}

// Complete sends a chat completion and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, req core.ModelRequest) (string, error) {
	model := req.ModelID
	if model == "" {
		model = c.modelName
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", core.NewCallError(core.KindMalformedResponse, errors.New("empty response from OpenAI"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", core.NewCallError(core.KindMalformedResponse, errors.New("empty message content from OpenAI"))
	}

	c.logger.Debug("Chat completion received",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return text, nil
}

// classify maps a go-openai failure onto a call kind
func classify(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("failed to create chat completion: %w", err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return core.NewCallError(core.KindRateLimited, wrapped)
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout || apiErr.HTTPStatusCode == http.StatusGatewayTimeout:
			return core.NewCallError(core.KindTimeout, wrapped)
		}
		return core.NewCallError(core.KindTransport, wrapped)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return core.NewCallError(core.KindRateLimited, wrapped)
		}
		if reqErr.HTTPStatusCode == http.StatusGatewayTimeout {
			return core.NewCallError(core.KindTimeout, wrapped)
		}
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

// headerTransport adds fixed headers to every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
