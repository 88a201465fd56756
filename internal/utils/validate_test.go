package utils

import "testing"

func TestPasswordProblem(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected string
	}{
		{"too short", "Ab1!", "Password must have at least 8 characters."},
		{"no capital", "abcdefg1!", "Password must have at least one capital letter."},
		{"no lowercase", "ABCDEFG1!", "Password must have at least one lowercase letter."},
		{"no digit", "Abcdefgh!", "The password must have at least one number."},
		{"no special", "Abcdefg12", "Password must have at least one special character."},
		{"valid", "Abcdefg1!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PasswordProblem(tt.password); got != tt.expected {
				t.Errorf("PasswordProblem(%q) = %q, expected %q", tt.password, got, tt.expected)
			}
		})
	}
}

func TestIsGmail(t *testing.T) {
	if !IsGmail("ana@gmail.com") {
		t.Error("gmail address rejected")
	}
	if IsGmail("ana@example.com") {
		t.Error("non-gmail address accepted")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("<b>ana</b>"); got != "ana" {
		t.Errorf("SanitizeInput() = %q", got)
	}
}
