package extract

import "unicode/utf8"

// maxPromptTokens caps the prompt text handed to the reasoning service.
// Quiz questions are short; anything beyond this is page noise.
const maxPromptTokens = 6000

// EstimateTokens provides a fast token count estimate without importing tiktoken.
//
// Heuristic: utf8 rune count / 3.
//
//   - English text averages ~4 chars/token, CJK text averages ~1.5 chars/token.
//   - Dividing by 3 is a reasonable middle-ground for mixed-language content.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}

// capPromptText truncates text to roughly maxPromptTokens tokens, cutting
// on a rune boundary.
func capPromptText(text string) string {
	if EstimateTokens(text) <= maxPromptTokens {
		return text
	}
	maxRunes := maxPromptTokens * 3
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "\n[content truncated]"
}
