package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

func TestBuildContents(t *testing.T) {
	history := []types.Message{
		{Role: types.RoleUser, Text: "what is this?", Attachments: []types.Attachment{
			{Name: "photo.jpg", MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}},
		}},
		{Role: types.RoleModel, Text: "A photo."},
		{Role: types.RoleUser, Text: ""}, // skipped: nothing to send
		{Role: types.RoleUser, Text: "thanks"},
	}

	contents := buildContents(history)
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(contents))
	}

	if contents[0].Role != "user" {
		t.Errorf("contents[0].Role = %q, want user", contents[0].Role)
	}
	if len(contents[0].Parts) != 2 {
		t.Fatalf("contents[0] has %d parts, want 2", len(contents[0].Parts))
	}
	if contents[0].Parts[0].Text != "what is this?" {
		t.Errorf("text part = %q", contents[0].Parts[0].Text)
	}
	blob := contents[0].Parts[1].InlineData
	if blob == nil || blob.MIMEType != "image/jpeg" {
		t.Errorf("attachment part = %+v, want inline jpeg data", contents[0].Parts[1])
	}

	if contents[1].Role != "model" {
		t.Errorf("contents[1].Role = %q, want model", contents[1].Role)
	}
	if contents[2].Parts[0].Text != "thanks" {
		t.Errorf("contents[2] text = %q, want %q", contents[2].Parts[0].Text, "thanks")
	}
}

func TestBuildConfig(t *testing.T) {
	req := &core.GenerateRequest{
		System:          "You are helpful.",
		Temperature:     0.2,
		MaxOutputTokens: 512,
		WebSearch:       true,
		Unrestricted:    true,
	}

	config := buildConfig(req)

	if config.Temperature == nil || *config.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", config.Temperature)
	}
	if config.MaxOutputTokens != 512 {
		t.Errorf("MaxOutputTokens = %d, want 512", config.MaxOutputTokens)
	}
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "You are helpful." {
		t.Error("system instruction not set")
	}
	if len(config.Tools) != 1 || config.Tools[0].GoogleSearch == nil {
		t.Error("google search tool not attached")
	}
	if len(config.SafetySettings) != 4 {
		t.Errorf("len(SafetySettings) = %d, want 4", len(config.SafetySettings))
	}
	for _, s := range config.SafetySettings {
		if s.Threshold != genai.HarmBlockThresholdBlockNone {
			t.Errorf("threshold for %s = %v, want BLOCK_NONE", s.Category, s.Threshold)
		}
	}
}

func TestBuildConfigMinimal(t *testing.T) {
	config := buildConfig(&core.GenerateRequest{Temperature: 0.7})

	if config.SystemInstruction != nil {
		t.Error("unexpected system instruction")
	}
	if len(config.Tools) != 0 {
		t.Error("unexpected tools")
	}
	if len(config.SafetySettings) != 0 {
		t.Error("unexpected safety settings")
	}
	if config.MaxOutputTokens != 0 {
		t.Errorf("MaxOutputTokens = %d, want 0", config.MaxOutputTokens)
	}
}

func TestExtractSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a", Title: "A"}},
						{Web: &genai.GroundingChunkWeb{URI: "#", Title: "junk"}},
						{Web: nil},
						{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b", Title: ""}},
					},
				},
			},
		},
	}

	sources := extractSources(resp)
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].URI != "https://example.com/a" || sources[0].Title != "A" {
		t.Errorf("sources[0] = %+v", sources[0])
	}
	// Blank titles fall back to the URI.
	if sources[1].Title != "https://example.com/b" {
		t.Errorf("sources[1].Title = %q, want URI fallback", sources[1].Title)
	}
}
