// file: internal/ai/openai_parser_test.go
// version: 1.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package ai

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewOpenAIParserDisabledWithoutKey(t *testing.T) {
	p := NewOpenAIParser("", true)
	if p.IsEnabled() {
		t.Error("parser should be disabled without an API key")
	}

	p = NewOpenAIParser("sk-test", false)
	if p.IsEnabled() {
		t.Error("parser should be disabled when flag is off")
	}
}

func TestNewOpenAIParserEnabled(t *testing.T) {
	p := NewOpenAIParser("sk-test", true)
	if !p.IsEnabled() {
		t.Error("parser should be enabled with key and flag")
	}
	if p.model != "gpt-4o-mini" {
		t.Errorf("model = %q", p.model)
	}
}

func TestParseNameDisabled(t *testing.T) {
	p := NewOpenAIParser("", false)
	if _, err := p.ParseName(context.Background(), "anything"); err == nil {
		t.Error("expected error from disabled parser")
	}
	if err := p.TestConnection(context.Background()); err == nil {
		t.Error("expected error from disabled parser")
	}
}

func TestParsedMetadataJSON(t *testing.T) {
	raw := `{"title":"The Final Empire","author":"Brandon Sanderson","series":"Mistborn","series_number":1,"confidence":"high"}`
	var p ParsedMetadata
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Title != "The Final Empire" || p.SeriesNum != 1 || p.Confidence != "high" {
		t.Errorf("unexpected parse %+v", p)
	}
}
