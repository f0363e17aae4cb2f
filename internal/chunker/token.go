package chunker

import "github.com/dgallion1/papertrans/internal/mdblock"

// EstimateTokens gives a rough token count from the word count. It is only
// used to size completion limits, so precision does not matter.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(mdblock.CountWords(text)) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
