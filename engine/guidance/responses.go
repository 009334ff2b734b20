package guidance

import (
	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/verification"
)

// Verified is attached to every answer returned to a caller.
type Verified struct {
	AnswerText          string                    `json:"answer_text"`
	VerificationLevel   verification.Level        `json:"verification_level"`
	VerificationDetails []verification.Check      `json:"verification_details"`
	Provenance          []verification.Provenance `json:"provenance"`
	ModelUsed           string                    `json:"model_used"`
}

func newVerified(answer string, res *verification.Result, model string) Verified {
	return Verified{
		AnswerText:          answer,
		VerificationLevel:   res.Level,
		VerificationDetails: res.Checks,
		Provenance:          res.Provenance,
		ModelUsed:           model,
	}
}

type GuidanceResponse struct {
	llmadapter.GuidanceResult
	Verified
}

type ChatResponse struct {
	llmadapter.ChatResult
	Verified
}

type MoodsResponse struct {
	Moods []string `json:"moods"`
}
