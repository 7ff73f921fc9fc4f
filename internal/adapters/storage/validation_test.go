package storage

import "testing"

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"5b7c0d3e/20260501T120000Z.json", true},
		{"lead.json", true},
		{"", false},
		{"/abs/key.json", false},
		{"lead/../other.json", false},
		{"lead//key.json", false},
	}
	for _, tt := range tests {
		err := ValidateObjectKey(tt.key)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateObjectKey(%q) = %v, want valid=%v", tt.key, err, tt.valid)
		}
	}
}
