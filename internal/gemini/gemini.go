// Package gemini summarizes articles through the Google Gemini API.
// It backs up the Claude provider in the default chain.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/summarize"
)

// Client wraps the Gemini SDK for article summarization.
type Client struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	langs       []string
}

// NewClient builds a Gemini provider that summarizes into the given
// target languages.
func NewClient(ctx context.Context, apiKey, model string, maxTokens int, temperature float64, langs []string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
		langs:       langs,
	}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Summarize sends one article to Gemini and parses the JSON payload
// out of the response text.
func (c *Client) Summarize(ctx context.Context, a *article.Article) (*article.SummaryPayload, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetMaxOutputTokens(c.maxTokens)
	model.SetTemperature(c.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(summarize.Prompt(a, c.langs)))
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini returned no text parts")
	}

	return summarize.ParsePayload(text.String(), c.langs)
}
