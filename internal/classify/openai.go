package classify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cardstash/cardstash/internal/model"
)

const (
	// maxImageBytes caps inlined images (5MB); larger images are skipped
	// rather than failing the classification.
	maxImageBytes = 5 * 1024 * 1024

	imageFetchTimeout = 8 * time.Second
	classifyTimeout   = 30 * time.Second
)

// classifyFn is the structured response contract requested from the model.
// A tool call avoids parsing free text.
const classifyFn = "classify_content"

var classifySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"type": {
			"type": "string",
			"enum": ["article", "image", "note", "product", "book", "video", "audio", "social", "movie", "website"]
		},
		"title": {"type": "string"},
		"tags": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string"}
	},
	"required": ["type", "tags"]
}`)

type classifyPayload struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// OpenAIClassifier is the primary classification path. It works against any
// OpenAI-compatible endpoint and switches to the vision model variant when
// an image can be inlined.
type OpenAIClassifier struct {
	client      *openai.Client
	model       string
	visionModel string
	band        TagBand
	httpClient  *http.Client
}

// OpenAIOption configures the classifier.
type OpenAIOption func(*OpenAIClassifier)

// WithModels overrides the text and vision model identifiers.
func WithModels(text, vision string) OpenAIOption {
	return func(c *OpenAIClassifier) {
		if text != "" {
			c.model = text
		}
		if vision != "" {
			c.visionModel = vision
		}
	}
}

// NewOpenAIClassifier creates the primary classifier. baseURL may point at
// any OpenAI-compatible service; empty means the default endpoint.
func NewOpenAIClassifier(apiKey, baseURL string, band TagBand, opts ...OpenAIOption) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if band.Min <= 0 {
		band = DefaultTagBand
	}
	c := &OpenAIClassifier{
		client:      openai.NewClientWithConfig(cfg),
		model:       openai.GPT4oMini,
		visionModel: openai.GPT4o,
		band:        band,
		httpClient:  &http.Client{Timeout: imageFetchTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify calls the model with a tool-call contract. Any transport error,
// missing tool call, or malformed arguments surfaces as an error for the
// Service to absorb into the fallback path.
func (c *OpenAIClassifier) Classify(ctx context.Context, req Request) (model.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := buildPrompt(req, c.band)
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	chatModel := c.model

	// Inline the image when it is small enough; switch to the vision model.
	if req.ImageURL != "" {
		if dataURI, err := c.inlineImage(ctx, req.ImageURL); err == nil {
			chatModel = c.visionModel
			msg = openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			}
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    chatModel,
		Messages: []openai.ChatCompletionMessage{msg},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        classifyFn,
				Description: "Record the classification of saved content",
				Parameters:  classifySchema,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: classifyFn},
		},
	})
	if err != nil {
		return model.Classification{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Classification{}, fmt.Errorf("no choices in response")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return model.Classification{}, fmt.Errorf("model returned no tool call")
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(calls[0].Function.Arguments), &payload); err != nil {
		return model.Classification{}, fmt.Errorf("decode tool arguments: %w", err)
	}
	if len(payload.Tags) == 0 {
		return model.Classification{}, fmt.Errorf("model returned no tags")
	}

	return model.Classification{
		Type:    model.CardType(payload.Type),
		Title:   payload.Title,
		Tags:    payload.Tags,
		Summary: payload.Summary,
	}, nil
}

// inlineImage fetches an image and encodes it as a data URI, enforcing the
// size cap while reading.
func (c *OpenAIClassifier) inlineImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d fetching image", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
