package guidance

import (
	"context"
	"fmt"
	"strings"
	"time"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/engine/verification"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	morningPrompt = "Create a concise good-morning greeting grounded in the provided Bhagavad Gita verse. " +
		"Keep it warm and practical, and include one uplifting line for the day."
	morningWhy = "Selected as the anchor verse for your morning."
)

var morningModes = []llmadapter.Mode{llmadapter.ModeComfort, llmadapter.ModeClarity}

type MorningRequest struct {
	Mode     llmadapter.Mode `json:"mode"     validate:"oneof=comfort clarity"`
	Language string          `json:"language" validate:"oneof=en hi te ta kn ml es"`
}

func (r *MorningRequest) Normalize() error {
	r.Mode = defaultMode(r.Mode, llmadapter.ModeComfort)
	r.Language = defaultLanguage(r.Language)
	return check(r)
}

// MorningKey scopes a greeting to one calendar day.
func MorningKey(day time.Time, r *MorningRequest) string {
	return fmt.Sprintf("morning:%s:%s:%s", day.Format(time.DateOnly), r.Mode, r.Language)
}

type MorningBackground struct {
	Name        string   `json:"name"`
	Palette     []string `json:"palette"`
	ImagePrompt string   `json:"image_prompt"`
}

type MorningGreetingResponse struct {
	Date        string              `json:"date"`
	Mode        llmadapter.Mode     `json:"mode"`
	Language    string              `json:"language"`
	Greeting    string              `json:"greeting"`
	Verse       llmadapter.Citation `json:"verse"`
	Meaning     string              `json:"meaning"`
	Affirmation string              `json:"affirmation"`
	Background  MorningBackground   `json:"background"`
	Verified
}

type backgroundRule struct {
	tokens     []string
	background MorningBackground
}

var backgroundRules = []backgroundRule{
	{
		tokens: []string{"calm", "mind", "equanimity", "peace"},
		background: MorningBackground{
			Name:        "Still Dawn",
			Palette:     []string{"#F9E7C2", "#E8CFA1", "#B7C7C7"},
			ImagePrompt: "A peaceful sunrise over a calm river with soft saffron and misty blue tones.",
		},
	},
	{
		tokens: []string{"duty", "action", "karma", "courage"},
		background: MorningBackground{
			Name:        "Courageous Sunrise",
			Palette:     []string{"#F4C26C", "#E28743", "#7B3F00"},
			ImagePrompt: "Golden sunrise over ancient temple steps, warm saffron light, disciplined energy.",
		},
	},
	{
		tokens: []string{"devotion", "faith", "bhakti", "surrender"},
		background: MorningBackground{
			Name:        "Devotional Glow",
			Palette:     []string{"#FFD9A0", "#E9B77D", "#6E7D57"},
			ImagePrompt: "Morning diya light in a serene shrine, soft saffron and leaf-green harmony.",
		},
	},
}

var (
	clarityBackground = MorningBackground{
		Name:        "Focused Morning",
		Palette:     []string{"#F6D08D", "#D98F4E", "#4F6D7A"},
		ImagePrompt: "Crisp morning light, clear horizon, saffron and slate tones for focused intention.",
	}
	gentleBackground = MorningBackground{
		Name:        "Gentle Morning",
		Palette:     []string{"#FCE3B4", "#F2B58A", "#A5BCA7"},
		ImagePrompt: "Soft dawn sky with warm saffron clouds and quiet earth tones for emotional steadiness.",
	}
)

// backgroundFor matches verse tags by substring, first rule wins, then falls
// back on the mode.
func backgroundFor(tags []string, mode llmadapter.Mode) MorningBackground {
	blob := strings.ToLower(strings.Join(tags, " "))
	for _, rule := range backgroundRules {
		for _, token := range rule.tokens {
			if strings.Contains(blob, token) {
				return rule.background
			}
		}
	}
	if mode == llmadapter.ModeClarity {
		return clarityBackground
	}
	return gentleBackground
}

// MorningGreeting writes a short greeting anchored on the verse of the day.
// One greeting is memoized per day, mode and language.
func (s *Service) MorningGreeting(ctx context.Context, req *MorningRequest) (*MorningGreetingResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	today := s.now()
	key := MorningKey(today, req)
	log := logger.FromContext(ctx).With("cache_key_kind", keyKind(key))
	if cached, ok := s.morningCache.Get(ctx, key); ok {
		log.Debug("Morning greeting served from cache")
		return cached, nil
	}
	verse, err := s.DailyVerse(ctx)
	if err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	grounding := []passage.Passage{*verse}
	result, backend, err := s.generator.Chat(ctx, llmadapter.ChatInput{
		Message:  morningPrompt,
		Mode:     req.Mode,
		Language: req.Language,
		History:  []llmadapter.ChatTurn{},
		Verses:   grounding,
	}, morningPrompt)
	if err != nil {
		return nil, fmt.Errorf("guidance: morning greeting: %w", err)
	}
	selected := anchorCitation(verse)
	if len(result.Verses) > 0 {
		selected = result.Verses[0]
	}
	greeting := strings.TrimSpace(result.Reply)
	verdict := verification.Verify(result.GroundingText(), result.Verses, grounding)
	resp := &MorningGreetingResponse{
		Date:        today.Format(time.DateOnly),
		Mode:        req.Mode,
		Language:    req.Language,
		Greeting:    greeting,
		Verse:       selected,
		Meaning:     selected.Translation,
		Affirmation: result.ActionStep,
		Background:  backgroundFor(verse.Tags, req.Mode),
		Verified:    newVerified(greeting, &verdict, backend),
	}
	s.morningCache.Set(ctx, key, resp)
	log.Info("Morning greeting generated", "model_used", backend, "verse", verse.Ref)
	return resp, nil
}

func anchorCitation(p *passage.Passage) llmadapter.Citation {
	return llmadapter.Citation{
		VerseID:         p.ID,
		Ref:             p.Ref,
		Sanskrit:        p.Sanskrit,
		Transliteration: p.Transliteration,
		Translation:     p.Translation,
		WhyThis:         morningWhy,
	}
}
