package llmadapter

import (
	"encoding/json"
	"strings"

	"github.com/gitacompanion/companion/engine/passage"
)

const (
	maxPromptVerses  = 3
	maxPromptHistory = 12
)

const guidanceSchema = `{"mode": "comfort|clarity|traditional", "topic": "string", ` +
	`"verses": [{"verse_id": 47, "ref": "2.47", "sanskrit": "...", "transliteration": "...", ` +
	`"translation": "...", "why_this": "..."}], "guidance_short": "string (max 500 chars)", ` +
	`"guidance_long": "string", "micro_practice": {"title": "string", "steps": ["...", "..."], ` +
	`"duration_minutes": 1}, "reflection_prompt": "string", "safety": {"flagged": false, "message": null}}`

const chatSchema = `{"mode": "comfort|clarity|traditional", "reply": "string", ` +
	`"verses": [{"verse_id": 47, "ref": "2.47", "sanskrit": "...", "transliteration": "...", ` +
	`"translation": "...", "why_this": "..."}], "action_step": "string", "reflection_prompt": "string", ` +
	`"safety": {"flagged": false, "message": null}}`

var krishnaVoiceCues = []string{
	"as krishna", "krishna voice", "krishna's voice", "like krishna", "you are krishna", "speak as krishna",
}

// ModeStyleInstruction describes the voice for a mode.
func ModeStyleInstruction(mode Mode, krishnaVoice bool) string {
	if krishnaVoice {
		return "Voice: speak in first-person Krishna voice, compassionate and steady, " +
			"with practical dharma guidance and no fabricated claims."
	}
	switch mode {
	case ModeComfort:
		return "Style: warm, reassuring, and concise."
	case ModeClarity:
		return "Style: direct, concise, and action-focused."
	default:
		return "Style: traditional Bhagavad Gita voice, respectful and dharma-centered, " +
			"with moderately detailed explanation."
	}
}

// WantsKrishnaVoice reports whether the user explicitly asked for Krishna to
// answer in person.
func WantsKrishnaVoice(message string, userTurns []string) bool {
	texts := append([]string{message}, userTurns...)
	for _, text := range texts {
		lowered := strings.ToLower(text)
		for _, cue := range krishnaVoiceCues {
			if strings.Contains(lowered, cue) {
				return true
			}
		}
	}
	return false
}

type promptVerse struct {
	VerseID         int    `json:"verse_id"`
	Ref             string `json:"ref"`
	Sanskrit        string `json:"sanskrit"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
}

func versesJSON(verses []passage.Passage) string {
	n := min(len(verses), maxPromptVerses)
	payload := make([]promptVerse, 0, n)
	for i := range verses[:n] {
		v := &verses[i]
		payload = append(payload, promptVerse{
			VerseID:         v.ID,
			Ref:             v.Ref,
			Sanskrit:        v.Sanskrit,
			Transliteration: v.Transliteration,
			Translation:     v.Translation,
		})
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "[]"
	}
	return string(out)
}

func historyJSON(history []ChatTurn) string {
	if len(history) > maxPromptHistory {
		history = history[len(history)-maxPromptHistory:]
	}
	payload := make([]ChatTurn, len(history))
	copy(payload, history)
	out, err := json.Marshal(payload)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// BuildGuidancePrompt renders the single-turn prompt for a guidance answer.
func BuildGuidancePrompt(in *GuidanceInput) string {
	var b strings.Builder
	b.WriteString("You are a compassionate Bhagavad Gita guidance assistant. ")
	b.WriteString("Use only the supplied verses. Do not invent verse references. ")
	b.WriteString("Return strict JSON only - no markdown fences and no explanation outside JSON. ")
	b.WriteString("Schema: " + guidanceSchema + "\n\n")
	b.WriteString(LanguageInstruction(in.Language) + "\n")
	b.WriteString(ModeStyleInstruction(in.Mode, in.Mode == ModeTraditional) + "\n")
	b.WriteString("Mode: " + string(in.Mode) + "\n")
	b.WriteString("Topic: " + in.Topic + "\n")
	b.WriteString("Available verses JSON: " + versesJSON(in.Verses))
	return b.String()
}

// BuildChatPrompt renders the prompt for a chat reply including recent history.
func BuildChatPrompt(in *ChatInput) string {
	userTurns := make([]string, 0, len(in.History))
	for _, turn := range in.History {
		if turn.Role == RoleUser {
			userTurns = append(userTurns, turn.Content)
		}
	}
	krishna := in.Mode == ModeTraditional || WantsKrishnaVoice(in.Message, userTurns)
	var b strings.Builder
	b.WriteString("You are a compassionate Bhagavad Gita chatbot. ")
	b.WriteString("Use only provided verses and never invent verse references. ")
	b.WriteString("Keep tone practical, warm, and concise. ")
	b.WriteString("Return strict JSON only - no markdown fences.\n")
	b.WriteString("Schema: " + chatSchema + "\n")
	b.WriteString(LanguageInstruction(in.Language) + "\n")
	b.WriteString(ModeStyleInstruction(in.Mode, krishna) + "\n")
	b.WriteString("Mode: " + string(in.Mode) + "\n")
	b.WriteString("Conversation history JSON: " + historyJSON(in.History) + "\n")
	b.WriteString("User message: " + in.Message + "\n")
	b.WriteString("Available verses JSON: " + versesJSON(in.Verses))
	return b.String()
}
