package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/leofalp/chatwidget/internal/utils"
	"github.com/leofalp/chatwidget/providers/ai"
)

// requestToGemini converts an ai.ChatRequest to a Gemini generateContentRequest.
func requestToGemini(request ai.ChatRequest) generateContentRequest {
	return generateContentRequest{
		Contents:         buildContents(request.Turns),
		GenerationConfig: buildGenerationConfig(request.GenerationConfig),
	}
}

// buildContents maps turns one to one onto contents, preserving part order.
// Turns without any usable part are skipped since Gemini rejects empty parts.
func buildContents(turns []ai.Turn) []content {
	contents := make([]content, 0, len(turns))
	for _, turn := range turns {
		c := content{Role: string(turn.Role)}
		if !turn.Role.Valid() {
			c.Role = string(ai.RoleUser)
		}
		for _, p := range turn.Parts {
			switch {
			case p.IsImage():
				c.Parts = append(c.Parts, part{InlineData: &inlineData{
					MimeType: p.Image.MimeType,
					Data:     p.Image.Data,
				}})
			case p.Type == ai.PartTypeText && p.Text != "":
				c.Parts = append(c.Parts, part{Text: p.Text})
			}
		}
		if len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}
	return contents
}

func buildGenerationConfig(cfg *ai.GenerationConfig) *generationConfig {
	if cfg == nil {
		return nil
	}
	out := &generationConfig{}
	if cfg.Temperature != 0 {
		out.Temperature = utils.Ptr(cfg.Temperature)
	}
	if cfg.TopP != 0 {
		out.TopP = utils.Ptr(cfg.TopP)
	}
	if cfg.MaxOutputTokens > 0 {
		out.MaxOutputTokens = utils.Ptr(cfg.MaxOutputTokens)
	}
	if out.Temperature == nil && out.TopP == nil && out.MaxOutputTokens == nil {
		return nil
	}
	return out
}

// geminiToGeneric converts a decoded response into an ai.ChatResponse. A
// response with no usable text is reported as a *ai.ProviderError: a blocked
// prompt or a SAFETY finish is a safety error, anything else a bad response.
func geminiToGeneric(resp generateContentResponse, statusCode int) (*ai.ChatResponse, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, ai.NewProviderError(providerName, ai.ErrorKindSafety, statusCode,
				"prompt blocked: "+resp.PromptFeedback.BlockReason, nil)
		}
		return nil, ai.NewProviderError(providerName, ai.ErrorKindBadResponse, statusCode, "no candidates in response", nil)
	}

	first := resp.Candidates[0]
	finishReason := mapFinishReason(first.FinishReason)

	var texts []string
	if first.Content != nil {
		for _, p := range first.Content.Parts {
			if p.Text != "" && !p.Thought {
				texts = append(texts, p.Text)
			}
		}
	}
	text := strings.Join(texts, "")

	if strings.TrimSpace(text) == "" {
		if finishReason == "content_filter" {
			return nil, ai.NewProviderError(providerName, ai.ErrorKindSafety, statusCode,
				"reply blocked: "+first.FinishReason, nil)
		}
		return nil, ai.NewProviderError(providerName, ai.ErrorKindBadResponse, statusCode, "empty reply text", nil)
	}

	result := &ai.ChatResponse{
		Id:           resp.ResponseID,
		Model:        resp.ModelVersion,
		Content:      text,
		FinishReason: finishReason,
	}
	if result.Id == "" {
		result.Id = fmt.Sprintf("gemini-%d", time.Now().UnixNano())
	}
	if resp.UsageMetadata != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// mapFinishReason converts Gemini finish reason to ai.ChatResponse finish reason.
func mapFinishReason(geminiReason string) string {
	switch geminiReason {
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return "content_filter"
	default:
		return "stop"
	}
}
