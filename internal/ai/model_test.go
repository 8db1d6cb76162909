package ai

import "testing"

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name, override, configured, want string
	}{
		{"override wins", "modelA", "modelB", "modelA"},
		{"configured default", "", "modelB", "modelB"},
		{"blank override", "   ", "modelB", "modelB"},
		{"fallback", "", "", FallbackModel},
		{"blank everything", " ", " ", FallbackModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectModel(tt.override, tt.configured); got != tt.want {
				t.Errorf("SelectModel(%q, %q) = %q, want %q", tt.override, tt.configured, got, tt.want)
			}
		})
	}
}
