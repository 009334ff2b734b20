package llmadapter

import (
	"context"
	"fmt"

	"github.com/gitacompanion/companion/engine/passage"
)

const maxCitations = 3

// MockGenerator is the offline backend. Output depends only on the input and
// it never fails, so it is always registered last as the floor of failover.
type MockGenerator struct{}

var (
	_ GuidanceGenerator = MockGenerator{}
	_ ChatGenerator     = MockGenerator{}
)

func NewMockGenerator() MockGenerator { return MockGenerator{} }

func (MockGenerator) GenerateGuidance(_ context.Context, in GuidanceInput) (*GuidanceResult, error) {
	why := "This verse supports disciplined action and clear thinking."
	tone := "Choose the next right action and execute it with focus."
	if in.Mode == ModeComfort {
		why = "This verse supports emotional steadiness and self-awareness."
		tone = "Take one small gentle step and steady your breath."
	}
	return &GuidanceResult{
		Mode:          in.Mode,
		Topic:         in.Topic,
		Verses:        mockCitations(in.Verses, why),
		GuidanceShort: tone,
		GuidanceLong: "Anchor attention in what is in your control. " +
			"Read one verse slowly, notice one practical lesson, and apply it to the next hour.",
		MicroPractice: MicroPractice{
			Title: "One-Minute Grounding",
			Steps: []string{
				"Inhale for 4 counts, exhale for 6 counts, repeat five times.",
				"Read the first selected verse once and name one action you can do now.",
			},
			DurationMinutes: 1,
		},
		ReflectionPrompt: "What is one action I can complete today without attachment to the outcome?",
	}, nil
}

func (MockGenerator) GenerateChat(_ context.Context, in ChatInput) (*ChatResult, error) {
	why := "This verse supports clear action and discernment."
	tone := "Let us simplify this into one clear, disciplined next move."
	if in.Mode == ModeComfort {
		why = "This verse helps with emotional steadiness."
		tone = "You are not alone in this. Let us make this gentle and practical."
	}
	citations := mockCitations(in.Verses, why)
	primary := "2.47"
	if len(citations) > 0 {
		primary = citations[0].Ref
	}
	return &ChatResult{
		Mode: in.Mode,
		Reply: fmt.Sprintf(
			"%s Your question was: '%s'. Begin with verse %s, then apply one concrete action in the next hour.",
			tone, in.Message, primary,
		),
		Verses:           citations,
		ActionStep:       "Pause for one minute, read the first verse once, then complete one focused task immediately.",
		ReflectionPrompt: "What can I do now with sincerity, without clinging to the result?",
	}, nil
}

func mockCitations(verses []passage.Passage, why string) []Citation {
	n := min(len(verses), maxCitations)
	out := make([]Citation, 0, n)
	for i := range verses[:n] {
		v := &verses[i]
		out = append(out, Citation{
			VerseID:         v.ID,
			Ref:             v.Ref,
			Sanskrit:        v.Sanskrit,
			Transliteration: v.Transliteration,
			Translation:     v.Translation,
			WhyThis:         why,
		})
	}
	return out
}
