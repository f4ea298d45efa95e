package utils

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.domain.org",
		"user+tag@example.co.in",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@missinglocal.com",
		"user@",
		"user@nodot",
		"user name@example.com",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Asha Rao"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateName(strings.Repeat("x", 101)); err == nil {
		t.Error("overlong name accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough1"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("empty password accepted")
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("short password accepted")
	}
}
