package sanitizer

import (
	"testing"

	"serenity/pkg/model"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Nguyen Thi Mai  ",
			want:  "Nguyen Thi Mai",
		},
		{
			name:  "multiple spaces between words",
			input: "Nguyen    Thi Mai",
			want:  "Nguyen Thi Mai",
		},
		{
			name:  "tabs and newlines",
			input: "Nguyen\t\nThi Mai",
			want:  "Nguyen Thi Mai",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve diacritics",
			input: " Trần Văn Hùng ",
			want:  "Trần Văn Hùng",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeGuestInfo(t *testing.T) {
	info := &model.GuestInfo{
		FullName: "  Pham   Quoc  Anh ",
		Phone:    "090 123 4567",
		Email:    " anh@example.com ",
	}

	SanitizeGuestInfo(info)

	if info.FullName != "Pham Quoc Anh" {
		t.Errorf("FullName = %q, want normalized name", info.FullName)
	}
	if info.Phone != "+84901234567" {
		t.Errorf("Phone = %q, want E.164", info.Phone)
	}
	if info.Email != "anh@example.com" {
		t.Errorf("Email = %q, want trimmed", info.Email)
	}

	// nil is a no-op, member bookings carry no guest block
	SanitizeGuestInfo(nil)
}
