// Package grounded performs AI-grounded web lookups of property facts via
// the Anthropic API.
package grounded

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2048
)

// Client answers property fact lookups with provider-agnostic facts.
type Client interface {
	PropertyFacts(ctx context.Context, address string) (*Facts, error)
}

// Facts is the provider-agnostic record the grounded lookup returns. Fields
// the model could not substantiate are left at their zero value.
type Facts struct {
	Address       string   `json:"address"`
	Zoning        string   `json:"zoning"`
	FloodZone     string   `json:"flood_zone"`
	AssessedValue float64  `json:"assessed_value"`
	MarketValue   float64  `json:"market_value"`
	WalkScore     int      `json:"walk_score"`
	Schools       []string `json:"schools"`
	Confidence    float64  `json:"confidence"`
}

const systemPrompt = `You are a property research assistant. Given a US street address, report only facts you can substantiate: zoning designation, FEMA flood zone, assessed value, estimated market value, walk score, and assigned public schools. Respond with a single JSON object matching this schema, omitting fields you cannot substantiate, and include a "confidence" between 0 and 1 reflecting how much of the record you could verify:
{"address": "...", "zoning": "...", "flood_zone": "...", "assessed_value": 0, "market_value": 0, "walk_score": 0, "schools": ["..."], "confidence": 0.0}`

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) { c.model = model }
}

type sdkClient struct {
	client sdk.Client
	model  string
}

// NewClient creates a grounded lookup client backed by the Anthropic SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) PropertyFacts(ctx context.Context, address string) (*Facts, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock("Look up property facts for: " + address)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "grounded: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}

	facts, err := ParseFacts(text.String())
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// ParseFacts extracts the first JSON object from a model response. Models
// sometimes wrap the object in prose or a code fence.
func ParseFacts(text string) (*Facts, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("grounded: no JSON object in response")
	}

	var facts Facts
	if err := json.Unmarshal([]byte(text[start:end+1]), &facts); err != nil {
		return nil, eris.Wrap(err, "grounded: decode facts")
	}
	return &facts, nil
}
