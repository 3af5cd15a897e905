package api

import "testing"

func TestNewID(t *testing.T) {
	id := NewID()
	if !ValidateID(id) {
		t.Errorf("NewID() = %q, want valid ID", id)
	}
	if other := NewID(); other == id {
		t.Errorf("NewID() returned %q twice", id)
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "3f1c1f0e-8c1a-4ad4-9d43-2b8f4f7d6a10", true},
		{"upper case", "3F1C1F0E-8C1A-4AD4-9D43-2B8F4F7D6A10", true},
		{"no dashes", "3f1c1f0e8c1a4ad49d432b8f4f7d6a10", false},
		{"urn form", "urn:uuid:3f1c1f0e-8c1a-4ad4-9d43-2b8f4f7d6a10", false},
		{"garbage", "not-a-uuid-at-all-but-36-characters", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.want {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
