package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You monitor a home camera for a person who may need help.
Look at the image and answer with a single JSON object:
{"emergency": true|false, "confidence": 0-100, "type": "fall"|"distress"|"medical"|"hazard"|"none", "description": "<one short sentence>"}
Report emergency only for a person who has fallen, appears in distress or a medical crisis, or a visible hazard such as fire or smoke.`

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	ImageDetail string
}

// OpenAIClassifier talks to any OpenAI compatible chat completion API
// that accepts image parts.
type OpenAIClassifier struct {
	client *openai.Client
	config OpenAIConfig
}

func NewOpenAIClassifier(config OpenAIConfig) (*OpenAIClassifier, error) {
	if config.APIKey == "" {
		return nil, errors.New("vision api key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, jpeg []byte) (*Verdict, error) {
	if len(jpeg) == 0 {
		return nil, errors.New("empty image")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Classify this frame.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    DataURL(jpeg),
							Detail: imageDetail(c.config.ImageDetail),
						},
					},
				},
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to classify frame: %w", err)
	}

	if len(resp.Choices) == 0 {
		return NoEmergency(), nil
	}

	return ParseVerdict(resp.Choices[0].Message.Content), nil
}

func imageDetail(s string) openai.ImageURLDetail {
	switch strings.ToLower(s) {
	case "high":
		return openai.ImageURLDetailHigh
	case "auto":
		return openai.ImageURLDetailAuto
	default:
		return openai.ImageURLDetailLow
	}
}

// DataURL encodes a JPEG as a data URL.
func DataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}

// DecodeImage accepts a data URL or bare base64 and returns the raw bytes.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, errors.New("malformed data url")
		}
		if !strings.Contains(s[:comma], ";base64") {
			return nil, errors.New("data url is not base64 encoded")
		}
		s = s[comma+1:]
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty image")
	}
	return b, nil
}
