package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f fakeGenerator) GenerateContent(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
	return f.resp, f.err
}

func newTestClient(g fakeGenerator, seen *string) *GeminiClient {
	return &GeminiClient{
		modelName: "gemini-1.5-flash",
		logger:    zap.NewNop(),
		newModel: func(name string, _ core.ModelRequest) generator {
			if seen != nil {
				*seen = name
			}
			return g
		},
	}
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestCompleteJoinsTextParts(t *testing.T) {
	var seen string
	c := newTestClient(fakeGenerator{resp: textResponse(genai.Text(`{"company_name":`), genai.Text(`"Acme"}`))}, &seen)

	text, err := c.Complete(context.Background(), core.ModelRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"company_name":"Acme"}` {
		t.Errorf("unexpected text %q", text)
	}
	if seen != "gemini-1.5-flash" {
		t.Errorf("expected default model, got %q", seen)
	}
}

func TestCompleteErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		gen  fakeGenerator
		want core.CallKind
	}{
		{"quota", fakeGenerator{err: &googleapi.Error{Code: http.StatusTooManyRequests}}, core.KindRateLimited},
		{"server", fakeGenerator{err: &googleapi.Error{Code: http.StatusInternalServerError}}, core.KindTransport},
		{"deadline", fakeGenerator{err: context.DeadlineExceeded}, core.KindTimeout},
		{"grpc quota", fakeGenerator{err: errors.New("rpc error: code = ResourceExhausted desc = quota")}, core.KindRateLimited},
		{"no candidates", fakeGenerator{resp: &genai.GenerateContentResponse{}}, core.KindMalformedResponse},
		{"nil response", fakeGenerator{}, core.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.gen, nil).Complete(context.Background(), core.ModelRequest{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := core.KindOf(err); got != tt.want {
				t.Errorf("expected kind %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}
