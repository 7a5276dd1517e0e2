package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/pkg/anthropic"
)

const draftSystemPrompt = `You are an outreach copywriter. You write short, specific LinkedIn-style messages that open a conversation, never a hard sell. Respond with a single JSON object and nothing else:
{"message": "<the outreach message, under 300 characters>", "strategy_tag": "<one of PAIN_POINT, VALIDATION_ASK, DIRECT_PITCH, MUTUAL_CONNECTION, INDUSTRY_TREND>"}`

// FallbackMessage is used whenever draft generation fails; every contact
// leaves the pipeline with a sendable message.
func FallbackMessage(contact *model.Contact) string {
	return fmt.Sprintf("Hi %s, I'd love to connect and learn more about your work at %s.",
		contact.FullName, contact.CompanyName)
}

// draftMessage generates the outreach draft for a contact. It never returns
// an error: on any generation or parse failure it falls back to a template
// message tagged with the default strategy.
func (p *Pipeline) draftMessage(ctx context.Context, profile *model.Profile, contact *model.Contact, research model.Research) (string, model.StrategyTag) {
	log := zap.L().With(zap.String("contact_id", contact.ID))

	resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    draftSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildDraftPrompt(profile, contact, research)},
		},
	})
	if err != nil {
		log.Warn("enrich: draft generation failed, using fallback", zap.Error(err))
		return FallbackMessage(contact), model.DefaultStrategyTag
	}

	message, tag, err := parseDraft(resp.Text)
	if err != nil {
		log.Warn("enrich: draft response unparseable, using fallback",
			zap.String("stop_reason", resp.StopReason),
			zap.Error(err),
		)
		return FallbackMessage(contact), model.DefaultStrategyTag
	}
	return message, tag
}

// buildDraftPrompt assembles the user prompt from the sender profile, the
// contact, and whatever research survived the search phase.
func buildDraftPrompt(profile *model.Profile, contact *model.Contact, research model.Research) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sender mission: %s\n", profile.MissionStatement)
	fmt.Fprintf(&b, "Outreach intent: %s\n\n", profile.IntentType)
	fmt.Fprintf(&b, "Contact: %s, %s at %s\n", contact.FullName, contact.RawRole, contact.CompanyName)

	if research.NewsSummary != "" {
		fmt.Fprintf(&b, "\nRecent company news:\n%s\n", research.NewsSummary)
	}
	if research.PainPoints != "" {
		fmt.Fprintf(&b, "\nPossible pain points:\n%s\n", research.PainPoints)
	}
	if research.NewsSummary == "" && research.PainPoints == "" {
		b.WriteString("\nNo research is available for this contact. Write from the contact's role and company alone.\n")
	}

	b.WriteString("\nWrite the outreach message now.")
	return b.String()
}

// parseDraft extracts the message and strategy tag from the model response.
// Unknown strategy labels are normalized to the default tag rather than
// rejected; the message itself is hard-capped at the channel limit.
func parseDraft(text string) (string, model.StrategyTag, error) {
	cleaned := cleanJSON(text)

	var out struct {
		Message     string `json:"message"`
		StrategyTag string `json:"strategy_tag"`
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return "", "", err
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return "", "", fmt.Errorf("empty message in draft response")
	}
	message = truncate(message, model.MaxDraftMessageChars)

	tag := model.NormalizeStrategyTag(out.StrategyTag)
	if tag == model.DefaultStrategyTag && !strings.EqualFold(strings.TrimSpace(out.StrategyTag), string(model.DefaultStrategyTag)) {
		zap.L().Warn("enrich: unrecognized strategy tag, normalized to default",
			zap.String("raw_tag", out.StrategyTag),
		)
	}
	return message, tag, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
