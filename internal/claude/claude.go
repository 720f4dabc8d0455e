// Package claude summarizes articles through the Anthropic Messages
// API. It is the first provider in the default chain.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/summarize"
)

// Client wraps the Anthropic SDK for article summarization.
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	langs       []string
}

// NewClient builds a Claude provider that summarizes into the given
// target languages.
func NewClient(apiKey, model string, maxTokens int, temperature float64, langs []string) *Client {
	return &Client{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
		langs:       langs,
	}
}

func (c *Client) Name() string { return "claude" }

// Summarize sends one article to the Messages API and parses the JSON
// payload out of the response text.
func (c *Client) Summarize(ctx context.Context, a *article.Article) (*article.SummaryPayload, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summarize.Prompt(a, c.langs))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude returned no text content")
	}

	return summarize.ParsePayload(text.String(), c.langs)
}
