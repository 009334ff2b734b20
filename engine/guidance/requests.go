package guidance

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
)

const (
	MaxHistoryTurns  = 12
	retrievalHistory = 6
)

// Moods offered by the mood check-in.
var Moods = []string{
	"Anxious",
	"Overwhelmed",
	"Uncertain",
	"Unmotivated",
	"Grateful",
	"Sad",
	"Angry",
	"Hopeful",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type AskRequest struct {
	Question string          `json:"question" validate:"required,min=3,max=500"`
	Mode     llmadapter.Mode `json:"mode"     validate:"oneof=comfort clarity traditional"`
	Language string          `json:"language" validate:"oneof=en hi te ta kn ml es"`
}

// Normalize trims input, applies defaults and validates.
func (r *AskRequest) Normalize() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("%w: question cannot be empty", ErrInvalidQuery)
	}
	r.Mode = defaultMode(r.Mode, llmadapter.ModeClarity)
	r.Language = defaultLanguage(r.Language)
	return check(r)
}

type MoodRequest struct {
	Moods    []string        `json:"moods"    validate:"min=1,max=5,dive,required,max=40"`
	Note     string          `json:"note"     validate:"max=200"`
	Mode     llmadapter.Mode `json:"mode"     validate:"oneof=comfort clarity traditional"`
	Language string          `json:"language" validate:"oneof=en hi te ta kn ml es"`
}

func (r *MoodRequest) Normalize() error {
	moods := make([]string, 0, len(r.Moods))
	for _, m := range r.Moods {
		if m = strings.TrimSpace(m); m != "" {
			moods = append(moods, m)
		}
	}
	if len(moods) == 0 {
		return fmt.Errorf("%w: at least one mood is required", ErrInvalidQuery)
	}
	r.Moods = moods
	r.Note = strings.TrimSpace(r.Note)
	r.Mode = defaultMode(r.Mode, llmadapter.ModeComfort)
	r.Language = defaultLanguage(r.Language)
	return check(r)
}

// Topic joins the moods and the optional note into the retrieval query.
func (r *MoodRequest) Topic() string {
	topic := strings.Join(r.Moods, ", ")
	if r.Note != "" {
		topic += " | " + r.Note
	}
	return topic
}

type ChatRequest struct {
	Message  string                `json:"message"  validate:"required,min=1,max=1000"`
	Mode     llmadapter.Mode       `json:"mode"     validate:"oneof=comfort clarity traditional"`
	Language string                `json:"language" validate:"oneof=en hi te ta kn ml es"`
	History  []llmadapter.ChatTurn `json:"history"  validate:"max=12,dive"`
}

func (r *ChatRequest) Normalize() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrInvalidQuery)
	}
	r.Mode = defaultMode(r.Mode, llmadapter.ModeClarity)
	r.Language = defaultLanguage(r.Language)
	if r.History == nil {
		r.History = []llmadapter.ChatTurn{}
	}
	return check(r)
}

// RetrievalQuery joins the user turns among the last six history turns with
// the message, so follow-ups stay grounded in the thread's topic.
func (r *ChatRequest) RetrievalQuery() string {
	recent := r.History[max(0, len(r.History)-retrievalHistory):]
	parts := make([]string, 0, len(recent)+1)
	for _, turn := range recent {
		if turn.Role == llmadapter.RoleUser {
			parts = append(parts, turn.Content)
		}
	}
	return strings.Join(append(parts, r.Message), " ")
}

func defaultMode(mode, fallback llmadapter.Mode) llmadapter.Mode {
	mode = llmadapter.Mode(strings.ToLower(strings.TrimSpace(string(mode))))
	if mode == "" {
		return fallback
	}
	return mode
}

func defaultLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return llmadapter.DefaultLanguage
	}
	return lang
}

func check(req any) error {
	if err := requestValidator().Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return nil
}
