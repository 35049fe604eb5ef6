// file: internal/ai/openai_parser.go
// version: 1.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// ParsedMetadata represents structured metadata extracted from a folder or
// file name by the language model.
type ParsedMetadata struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Series     string `json:"series,omitempty"`
	SeriesNum  int    `json:"series_number,omitempty"`
	Narrator   string `json:"narrator,omitempty"`
	Year       int    `json:"year,omitempty"`
	Confidence string `json:"confidence"` // high, medium, low
}

// OpenAIParser resolves messy release names into structured metadata when
// the rule-based parser cannot. Disabled unless an API key is configured.
type OpenAIParser struct {
	client  *openai.Client
	model   string
	enabled bool
}

// NewOpenAIParser creates a new OpenAI parser.
func NewOpenAIParser(apiKey string, enabled bool) *OpenAIParser {
	if !enabled || apiKey == "" {
		return &OpenAIParser{enabled: false}
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIParser{
		client:  &client,
		model:   "gpt-4o-mini",
		enabled: true,
	}
}

// IsEnabled returns whether the parser is enabled.
func (p *OpenAIParser) IsEnabled() bool {
	return p.enabled
}

const parseSystemPrompt = `You are an expert at parsing audiobook release names. Extract structured metadata from the name.

Common patterns:
- "Title - Author" or "Author - Title"
- "Author - Series Name Book N - Title"
- "Title (Series Name #N)" or "Title (Series Name, Book N)"
- May include narrator: "Title - Author - Narrator" or "read by Narrator"
- May include year: "Title (2020)"
- May include release noise: "[64k]", "(Unabridged)", "MP3", bitrates, tracker tags; ignore it

Return ONLY valid JSON with these fields (omit if not found):
{
  "title": "book title",
  "author": "author name",
  "series": "series name",
  "series_number": 1,
  "narrator": "narrator name",
  "year": 2020,
  "confidence": "high|medium|low"
}

Set confidence based on clarity of the name structure.`

// ParseName uses the model to parse a release name into structured metadata.
func (p *OpenAIParser) ParseName(ctx context.Context, name string) (*ParsedMetadata, error) {
	if !p.enabled {
		return nil, fmt.Errorf("OpenAI parser is not enabled")
	}

	userPrompt := fmt.Sprintf("Parse this audiobook release name:\n\n%s", name)

	jsonObjectFormat := shared.NewResponseFormatJSONObjectParam()

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(parseSystemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       shared.ChatModel(p.model),
		Temperature: param.NewOpt(0.1),
		MaxTokens:   param.NewOpt[int64](500),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObjectFormat,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var metadata ParsedMetadata
	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	return &metadata, nil
}

// TestConnection verifies the API key works with a trivial parse.
func (p *OpenAIParser) TestConnection(ctx context.Context) error {
	if !p.enabled {
		return fmt.Errorf("OpenAI parser is not enabled")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := p.ParseName(ctx, "The Hobbit - J.R.R. Tolkien")
	return err
}
