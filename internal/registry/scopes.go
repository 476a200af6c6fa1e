// ABOUTME: Scope containment check for tool authorization.

package registry

// HasRequiredScopes reports whether the caller's scope set contains every
// required scope. A tool with no required scopes is callable by anyone.
// Evaluated fresh per call; scopes are caller-asserted per request, so the
// result must never be cached across requests.
func HasRequiredScopes(userScopes, requiredScopes []string) bool {
	if len(requiredScopes) == 0 {
		return true
	}

	scopeSet := make(map[string]struct{}, len(userScopes))
	for _, s := range userScopes {
		scopeSet[s] = struct{}{}
	}

	for _, req := range requiredScopes {
		if _, has := scopeSet[req]; !has {
			return false
		}
	}
	return true
}
