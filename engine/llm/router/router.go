package router

import (
	"context"
	"strings"

	"github.com/gitacompanion/companion/pkg/logger"
)

// Backend names a category winner. Categories double as backend names.
const (
	BackendCodex  = "codex"
	BackendClaude = "claude"
)

// Category is one row of the keyword table.
type Category struct {
	Name     string
	Keywords []string
}

// Categories is the routing table, scored in order.
var Categories = []Category{
	{
		Name: BackendCodex,
		Keywords: []string{
			"code", "function", "bug", "error", "script", "python", "javascript", "debug",
			"syntax", "algorithm", "compile", "runtime", "api", "class", "method", "variable", "loop",
		},
	},
	{
		Name: BackendClaude,
		Keywords: []string{
			"gita", "verse", "dharma", "karma", "life", "advice", "anxiety", "purpose", "duty",
			"peace", "krishna", "arjuna", "spiritual", "meditation", "fear", "sorrow", "yoga",
			"soul", "atman", "mind", "suffering", "detachment", "devotion", "compassion",
			"gratitude", "anger", "healing", "mood", "overwhelmed", "unmotivated", "hopeful",
			"surrender", "action", "equanimity", "self",
		},
	},
}

// Decision is the routed backend with the raw score per category.
type Decision struct {
	Backend string         `json:"backend"`
	Scores  map[string]int `json:"scores"`
	Default bool           `json:"default"`
}

// Score counts keyword hits per category as case-insensitive substrings.
func Score(query string) map[string]int {
	lowered := strings.ToLower(query)
	scores := make(map[string]int, len(Categories))
	for _, cat := range Categories {
		hits := 0
		if lowered != "" {
			for _, kw := range cat.Keywords {
				if strings.Contains(lowered, kw) {
					hits++
				}
			}
		}
		scores[cat.Name] = hits
	}
	return scores
}

// Choose returns the category with a strictly highest score. Any tie, 0-0
// included, yields fallback.
func Choose(ctx context.Context, query, fallback string) Decision {
	scores := Score(query)
	best := ""
	bestScore := -1
	tied := false
	for _, cat := range Categories {
		s := scores[cat.Name]
		switch {
		case s > bestScore:
			best, bestScore, tied = cat.Name, s, false
		case s == bestScore:
			tied = true
		}
	}
	decision := Decision{Backend: best, Scores: scores}
	if tied || best == "" {
		decision.Backend = fallback
		decision.Default = true
	}
	logger.FromContext(ctx).Debug(
		"Routing decision",
		"backend", decision.Backend,
		"codex_score", scores[BackendCodex],
		"claude_score", scores[BackendClaude],
		"default", decision.Default,
	)
	recordDecision(ctx, decision)
	return decision
}
