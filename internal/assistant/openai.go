package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
)

const defaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAIProvider calls the OpenAI Responses API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider. baseURL may be empty.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, model: model}, nil
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends system as instructions and prompt as the input.
func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	res, err := p.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        p.model,
		Instructions: param.NewOpt(system),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, out := range res.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.AsMessage().Content {
			b.WriteString(c.Text)
		}
	}
	return b.String(), nil
}

var _ Provider = (*OpenAIProvider)(nil)
