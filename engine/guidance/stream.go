package guidance

import (
	"strings"
	"unicode/utf8"
)

// StreamChunkChars bounds the size of one streamed token event.
const StreamChunkChars = 28

// ReplyChunks splits reply on whitespace into chunks of whole words no longer
// than size runes, except for single words that exceed it. Every chunk but the last
// carries a trailing space so the chunks concatenate to the normalized reply.
func ReplyChunks(reply string, size int) []string {
	words := strings.Fields(reply)
	if len(words) == 0 {
		return []string{}
	}
	chunks := make([]string, 0, len(reply)/max(size, 1)+1)
	current := make([]string, 0, 8)
	length := 0
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		proposed := wordLen
		if len(current) > 0 {
			proposed = length + 1 + wordLen
		}
		if len(current) > 0 && proposed > size {
			chunks = append(chunks, strings.Join(current, " ")+" ")
			current = append(current[:0], word)
			length = wordLen
			continue
		}
		current = append(current, word)
		length = proposed
	}
	return append(chunks, strings.Join(current, " "))
}
