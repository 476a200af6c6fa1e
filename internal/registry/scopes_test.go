// ABOUTME: Tests for the scope containment check, including vacuous truth.

package registry

import "testing"

func TestHasRequiredScopes(t *testing.T) {
	tests := []struct {
		name     string
		user     []string
		required []string
		want     bool
	}{
		{"empty required is callable by anyone", []string{"a", "b"}, nil, true},
		{"empty required with empty user", nil, nil, true},
		{"no scopes against one required", nil, []string{"x"}, false},
		{"superset passes", []string{"x", "y"}, []string{"x"}, true},
		{"exact match passes", []string{"x"}, []string{"x"}, true},
		{"order does not matter", []string{"y", "x"}, []string{"x", "y"}, true},
		{"one missing fails", []string{"x"}, []string{"x", "y"}, false},
		{"unrelated scopes fail", []string{"a", "b"}, []string{"x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRequiredScopes(tt.user, tt.required); got != tt.want {
				t.Errorf("HasRequiredScopes(%v, %v) = %v, want %v", tt.user, tt.required, got, tt.want)
			}
		})
	}
}
