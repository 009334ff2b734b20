package llmadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/gitacompanion/companion/engine/passage"
)

var (
	// ErrEmptyResponse is returned when a backend produced no text.
	ErrEmptyResponse = errors.New("empty response from backend")
	// ErrMalformedOutput is returned when no JSON object can be extracted.
	ErrMalformedOutput = errors.New("backend output is not a JSON object")
	// ErrInvalidOutput is returned when the JSON does not satisfy the result schema.
	ErrInvalidOutput = errors.New("backend output failed schema validation")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func resultValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ExtractJSON returns the text between the first '{' and the last '}'.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrMalformedOutput
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return "", ErrMalformedOutput
	}
	return candidate, nil
}

// ParseGuidance decodes and validates a guidance answer.
func ParseGuidance(text string, verses []passage.Passage) (*GuidanceResult, error) {
	raw, err := extractObject(text, "guidance_short")
	if err != nil {
		return nil, err
	}
	var result GuidanceResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	resolveCitationIDs(result.Verses, verses)
	if err := resultValidator().Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return &result, nil
}

// ParseChat decodes and validates a chat reply.
func ParseChat(text string, verses []passage.Passage) (*ChatResult, error) {
	raw, err := extractObject(text, "reply")
	if err != nil {
		return nil, err
	}
	var result ChatResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	resolveCitationIDs(result.Verses, verses)
	if err := resultValidator().Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return &result, nil
}

func extractObject(text, requiredField string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return "", err
	}
	if !gjson.Get(raw, requiredField).Exists() {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidOutput, requiredField)
	}
	return raw, nil
}

// resolveCitationIDs fills missing verse ids from refs in the supplied context.
// Unknown refs keep id 0 and fail citation checks downstream.
func resolveCitationIDs(citations []Citation, verses []passage.Passage) {
	byRef := make(map[string]int, len(verses))
	for i := range verses {
		byRef[verses[i].Ref] = verses[i].ID
	}
	for i := range citations {
		if citations[i].VerseID != 0 {
			continue
		}
		if id, ok := byRef[strings.TrimSpace(citations[i].Ref)]; ok {
			citations[i].VerseID = id
		}
	}
}
