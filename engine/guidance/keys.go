package guidance

import (
	"crypto/md5" //nolint:gosec // cache key digest, not a security boundary
	"encoding/hex"
	"fmt"
	"strings"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
)

func AskKey(r *AskRequest) string {
	return fmt.Sprintf("ask:%s:%s:%s", r.Mode, r.Language, strings.ToLower(strings.TrimSpace(r.Question)))
}

func MoodKey(r *MoodRequest) string {
	return fmt.Sprintf("mood:%s:%s:%s", r.Mode, r.Language, strings.ToLower(strings.TrimSpace(r.Topic())))
}

// ChatKey folds the last twelve history turns into an md5 digest so the same
// message in a different conversation is a different entry.
func ChatKey(r *ChatRequest) string {
	return fmt.Sprintf(
		"chat:%s:%s:%s:%s",
		r.Mode, r.Language, strings.ToLower(strings.TrimSpace(r.Message)), historyDigest(r.History),
	)
}

func historyDigest(history []llmadapter.ChatTurn) string {
	recent := history[max(0, len(history)-MaxHistoryTurns):]
	parts := make([]string, len(recent))
	for i, turn := range recent {
		parts[i] = turn.Role + ":" + strings.ToLower(strings.TrimSpace(turn.Content))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|"))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
