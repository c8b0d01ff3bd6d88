package family

const (
	familiesCollection = "families"
	usersCollection    = "users"

	fieldMembers         = "members"
	fieldTokens          = "tokens"
	fieldTokensUpdatedAt = "tokensUpdatedAt"
)

// stringSlice returns the string elements of a stored array field. Values of
// any other shape read as empty.
func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// withoutTokens filters failed out of a stored token array. removed counts
// only entries that matched failed; non-string items are dropped from kept
// but never count as a removal.
func withoutTokens(v interface{}, failed map[string]struct{}) (kept []string, removed int) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, 0
	}
	kept = make([]string, 0, len(items))
	for _, item := range items {
		token, ok := item.(string)
		if !ok {
			continue
		}
		if _, bad := failed[token]; bad {
			removed++
			continue
		}
		kept = append(kept, token)
	}
	return kept, removed
}

// validTrims returns the entries of trims whose member id can name a
// document.
func validTrims(trims map[string][]string) map[string][]string {
	out := make(map[string][]string, len(trims))
	for memberID, tokens := range trims {
		if validID(memberID) {
			out[memberID] = tokens
		}
	}
	return out
}
