package gemini

import (
	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

// buildContents converts chat history into genai contents. Messages with
// neither text nor attachments are skipped.
func buildContents(history []types.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		var parts []*genai.Part
		if msg.Text != "" {
			parts = append(parts, genai.NewPartFromText(msg.Text))
		}
		for _, att := range msg.Attachments {
			if len(att.Data) == 0 {
				continue
			}
			parts = append(parts, genai.NewPartFromBytes(att.Data, att.MIMEType))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, roleFor(msg.Role)))
	}
	return contents
}

func roleFor(role types.Role) genai.Role {
	if role == types.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// buildConfig translates request settings into a generation config.
func buildConfig(req *core.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.WebSearch {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}
	if req.Unrestricted {
		config.SafetySettings = permissiveSafetySettings()
	}
	return config
}

// permissiveSafetySettings lowers every safety category to BLOCK_NONE.
func permissiveSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}
