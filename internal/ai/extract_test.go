package ai

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	obj := `{"event":"You arrive.","options":["Greet","Leave"],"statChanges":{"stress":5}}`

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare", obj, obj, true},
		{"padded", "\n  " + obj + "\n", obj, true},
		{"fenced", "```\n" + obj + "\n```", obj, true},
		{"json fence", "```json\n" + obj + "\n```", obj, true},
		{"prose", "preamble text " + obj + " trailing text", obj, true},
		{"nested braces in strings", `Sure: {"event":"a {b} c"}.`, `{"event":"a {b} c"}`, true},
		{"not json", "This is not JSON", "", false},
		{"empty", "", "", false},
		{"array", `[{"event":"x"}]`, `{"event":"x"}`, true},
		{"truncated", `{"event":"cut off`, "", false},
		{"reversed braces", "} then {", "", false},
		{"null", "null", "", false},
		{"two objects", `{"a":1} and {"b":2}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got %s)", ok, tt.ok, got)
			}
			if !ok {
				return
			}
			if !sameJSON(t, got, json.RawMessage(tt.want)) {
				t.Errorf("Extract = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractRoundTrip(t *testing.T) {
	values := []map[string]any{
		{"event": "x"},
		{"event": "多语言", "options": []any{"a", "b"}, "question": map[string]any{"text": "q", "choices": []any{"1"}}},
		{"statChanges": map[string]any{"knowledge": 3.0, "stress": -2.0}, "summaryUpdate": "so far"},
	}
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		s := string(b)
		for _, raw := range []string{s, "```\n" + s + "\n```", "preamble text " + s + " trailing text"} {
			got, ok := Extract(raw)
			if !ok {
				t.Fatalf("Extract(%q) failed", raw)
			}
			var back map[string]any
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(back, v) {
				t.Errorf("round trip of %q = %v, want %v", raw, back, v)
			}
		}
	}
}

func sameJSON(t *testing.T, a, b json.RawMessage) bool {
	t.Helper()
	var x, y any
	if err := json.Unmarshal(a, &x); err != nil {
		t.Fatalf("unmarshal %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &y); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return reflect.DeepEqual(x, y)
}
