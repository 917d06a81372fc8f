// Package openrouter implements the vision and generation provider on the
// OpenRouter OpenAI-compatible API, routing to the same Gemini models as the
// native provider.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"greenviz_backend/internal/ai"
	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/internal/projects/ports"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// modelPrefix namespaces the Gemini model ids on OpenRouter.
const modelPrefix = "google/"

// Config for OpenRouter.
type Config struct {
	APIKey  string
	BaseURL string
	// Referer and Title identify the app in OpenRouter's dashboard.
	Referer string
	Title   string
}

// Client is the OpenRouter-backed provider.
type Client struct {
	config Config
	client *http.Client
}

// New creates an OpenRouter provider.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		config: cfg,
		client: &http.Client{},
	}
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "openrouter"
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type responseImage struct {
	ImageURL imageRef `json:"image_url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []responseImage `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, req chatRequest) (*chatResponse, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		httpReq.Header.Set("X-Title", c.config.Title)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openrouter error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty choices")
	}

	return &parsed, nil
}

func userMessage(prompt, imageURL string) chatMessage {
	return chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
		},
	}
}

// AnalyzeImage runs the vision analysis and parses the structured answer.
// OpenRouter dereferences the image URL server-side, so no download is
// needed here.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, userDescription string) (domain.Analysis, error) {
	resp, err := c.complete(ctx, chatRequest{
		Model:    modelPrefix + ai.AnalysisModel,
		Messages: []chatMessage{userMessage(ai.BuildAnalysisPrompt(userDescription), imageURL)},
	})
	if err != nil {
		return domain.Analysis{}, err
	}

	var text string
	if err := json.Unmarshal(resp.Choices[0].Message.Content, &text); err != nil {
		// Content can also be an array of parts.
		var parts []contentPart
		if err := json.Unmarshal(resp.Choices[0].Message.Content, &parts); err != nil {
			return domain.Analysis{}, fmt.Errorf("openrouter: unreadable analysis content")
		}
		for _, p := range parts {
			if p.Type == "text" {
				text += p.Text
			}
		}
	}

	return ai.ParseAnalysis(text), nil
}

// GenerateImage produces the vegetated rendering. The generated image comes
// back as a base64 data URL.
func (c *Client) GenerateImage(ctx context.Context, imageURL string, analysis domain.Analysis, userDescription string) (ports.GeneratedImage, error) {
	resp, err := c.complete(ctx, chatRequest{
		Model:      modelPrefix + ai.GenerationModel,
		Messages:   []chatMessage{userMessage(ai.BuildGenerationPrompt(analysis, userDescription), imageURL)},
		Modalities: []string{"text", "image"},
	})
	if err != nil {
		return ports.GeneratedImage{}, err
	}

	message := resp.Choices[0].Message

	if len(message.Images) > 0 && message.Images[0].ImageURL.URL != "" {
		data, contentType, err := ai.DecodeDataURL(message.Images[0].ImageURL.URL)
		if err != nil {
			return ports.GeneratedImage{}, fmt.Errorf("openrouter image payload: %w", err)
		}
		return ports.GeneratedImage{Data: data, ContentType: contentType}, nil
	}

	// Some responses embed the image in the content parts instead.
	var parts []contentPart
	if err := json.Unmarshal(message.Content, &parts); err == nil {
		for _, p := range parts {
			if p.Type == "image_url" && p.ImageURL != nil {
				data, contentType, err := ai.DecodeDataURL(p.ImageURL.URL)
				if err != nil {
					return ports.GeneratedImage{}, fmt.Errorf("openrouter image payload: %w", err)
				}
				return ports.GeneratedImage{Data: data, ContentType: contentType}, nil
			}
		}
	}

	return ports.GeneratedImage{}, fmt.Errorf("openrouter: no image in response")
}
