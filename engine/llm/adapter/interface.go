package llmadapter

import (
	"context"

	"github.com/gitacompanion/companion/engine/passage"
)

// Mode selects the tone of a generated answer.
type Mode string

const (
	ModeComfort     Mode = "comfort"
	ModeClarity     Mode = "clarity"
	ModeTraditional Mode = "traditional"
)

// Chat roles accepted in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GuidanceInput is the grounding context for a single guidance answer.
type GuidanceInput struct {
	Topic    string
	Mode     Mode
	Language string
	Verses   []passage.Passage
}

// ChatTurn is one prior message in a conversation.
type ChatTurn struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// ChatInput is the grounding context for one chat reply.
type ChatInput struct {
	Message  string
	Mode     Mode
	Language string
	History  []ChatTurn
	Verses   []passage.Passage
}

// Citation is a verse the backend claims supports its answer.
type Citation struct {
	VerseID         int    `json:"verse_id"`
	Ref             string `json:"ref"             validate:"required"`
	Sanskrit        string `json:"sanskrit"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
	WhyThis         string `json:"why_this"`
}

type MicroPractice struct {
	Title           string   `json:"title"            validate:"required"`
	Steps           []string `json:"steps"            validate:"min=1"`
	DurationMinutes int      `json:"duration_minutes" validate:"min=1,max=15"`
}

type Safety struct {
	Flagged bool    `json:"flagged"`
	Message *string `json:"message"`
}

// GuidanceResult is a schema-valid guidance answer.
type GuidanceResult struct {
	Mode             Mode          `json:"mode"`
	Topic            string        `json:"topic"`
	Verses           []Citation    `json:"verses"            validate:"min=1,max=3,dive"`
	GuidanceShort    string        `json:"guidance_short"    validate:"required,max=500"`
	GuidanceLong     string        `json:"guidance_long"`
	MicroPractice    MicroPractice `json:"micro_practice"`
	ReflectionPrompt string        `json:"reflection_prompt"`
	Safety           Safety        `json:"safety"`
}

// GroundingText is the text the verifier checks for grounding. The short
// summary is excluded.
func (r *GuidanceResult) GroundingText() string {
	return r.GuidanceLong
}

// ChatResult is a schema-valid chat reply.
type ChatResult struct {
	Mode             Mode       `json:"mode"`
	Reply            string     `json:"reply"             validate:"required"`
	Verses           []Citation `json:"verses"            validate:"min=1,max=3,dive"`
	ActionStep       string     `json:"action_step"`
	ReflectionPrompt string     `json:"reflection_prompt"`
	Safety           Safety     `json:"safety"`
}

// GroundingText is the text the verifier checks for grounding.
func (r *ChatResult) GroundingText() string {
	return r.Reply
}

// GuidanceGenerator produces a guidance answer or an error. Implementations
// never fall back internally.
type GuidanceGenerator interface {
	GenerateGuidance(ctx context.Context, input GuidanceInput) (*GuidanceResult, error)
}

// ChatGenerator produces a chat reply or an error.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, input ChatInput) (*ChatResult, error)
}

// CitedIDs lists the verse ids of citations in order.
func CitedIDs(citations []Citation) []int {
	ids := make([]int, 0, len(citations))
	for i := range citations {
		ids = append(ids, citations[i].VerseID)
	}
	return ids
}
