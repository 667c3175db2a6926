package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// generator is the part of a genai.GenerativeModel used here
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is an implementation of the ModelClient interface using Google Gemini
type GeminiClient struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
	newModel  func(name string, req core.ModelRequest) generator
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}
	c.newModel = c.generativeModel
	return c, nil
}

// generativeModel builds a configured model for one request
func (c *GeminiClient) generativeModel(name string, req core.ModelRequest) generator {
	model := c.client.GenerativeModel(name)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.ResponseMIMEType = "application/json"
	return model
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Model returns the default model name
func (c *GeminiClient) Model() string {
	return c.modelName
}

// Complete generates content and returns the text of the first candidate
func (c *GeminiClient) Complete(ctx context.Context, req core.ModelRequest) (string, error) {
	name := req.ModelID
	if name == "" {
		name = c.modelName
	}

	resp, err := c.newModel(name, req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", classify(ctx, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", core.NewCallError(core.KindMalformedResponse, errors.New("empty response from Gemini"))
	}

	c.logger.Debug("Gemini content generated", zap.String("model", name), zap.Int("length", len(text)))
	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// classify maps a Gemini failure onto a call kind
func classify(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("failed to generate content with Gemini: %w", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return core.NewCallError(core.KindRateLimited, wrapped)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
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

	// gRPC transports report quota errors only in the message
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") || strings.Contains(err.Error(), "ResourceExhausted") {
		return core.NewCallError(core.KindRateLimited, wrapped)
	}

	return core.NewCallError(core.KindTransport, wrapped)
}
