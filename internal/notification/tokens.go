package notification

// MinTokenLength is the shortest string accepted as a push token.
const MinTokenLength = 100

// ValidateTokens drops implausible tokens and duplicates, keeping the first
// occurrence of each.
func ValidateTokens(tokens []string) []string {
	return validateTokens(tokens, MinTokenLength)
}

func validateTokens(tokens []string, minLen int) []string {
	seen := make(map[string]struct{}, len(tokens))
	valid := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" || len(token) < minLen {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		valid = append(valid, token)
	}
	return valid
}
