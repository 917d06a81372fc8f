// Package gemini implements the vision and generation provider on the
// native Gemini API.
package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"greenviz_backend/internal/ai"
	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/internal/projects/ports"
)

// maxImageFetchSize bounds the download of the original photo before it is
// inlined into the API request.
const maxImageFetchSize = 32 << 20

// Client is the Gemini-backed provider.
type Client struct {
	client *genai.Client
	http   *http.Client
}

// New creates a Gemini provider.
func New(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client: client,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "gemini"
}

// fetchImage downloads the stored photo so it can be sent inline. The
// Gemini API does not dereference arbitrary URLs.
func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchSize))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	return data, contentType, nil
}

// AnalyzeImage runs the vision analysis and parses the structured answer.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, userDescription string) (domain.Analysis, error) {
	data, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return domain.Analysis{}, err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText(ai.BuildAnalysisPrompt(userDescription)),
			{InlineData: &genai.Blob{MIMEType: contentType, Data: data}},
		},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, ai.AnalysisModel, contents, nil)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("gemini analysis: %w", err)
	}

	return ai.ParseAnalysis(resp.Text()), nil
}

// GenerateImage produces the vegetated rendering of the original photo.
func (c *Client) GenerateImage(ctx context.Context, imageURL string, analysis domain.Analysis, userDescription string) (ports.GeneratedImage, error) {
	data, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return ports.GeneratedImage{}, err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText(ai.BuildGenerationPrompt(analysis, userDescription)),
			{InlineData: &genai.Blob{MIMEType: contentType, Data: data}},
		},
	}}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := c.client.Models.GenerateContent(ctx, ai.GenerationModel, contents, config)
	if err != nil {
		return ports.GeneratedImage{}, fmt.Errorf("gemini generation: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return ports.GeneratedImage{Data: part.InlineData.Data, ContentType: mimeType}, nil
			}
		}
	}

	return ports.GeneratedImage{}, fmt.Errorf("gemini generation: no image in response")
}
