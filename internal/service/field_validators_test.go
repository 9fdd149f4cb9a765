package service

import (
	"strings"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/i18n"
)

func fixedValidators(now string) FieldValidators {
	v := NewFieldValidators(i18n.LocaleEN)
	fixed, _ := time.Parse("2006-01-02", now)
	v.Now = func() time.Time { return fixed }
	return v
}

func TestValidateEmail(t *testing.T) {
	v := NewFieldValidators(i18n.LocaleEN)
	cases := map[string]bool{
		"user@example.com":        true,
		"first.last@shop.co.uk":   true,
		"":                        false,
		"user@":                   false,
		"user@localhost":          false,
		"User <user@example.com>": false,
		"no-at-sign.example.com":  false,
	}
	for input, valid := range cases {
		got := v.ValidateEmail(input)
		if (got == "") != valid {
			t.Fatalf("email %q: valid=%v got message %q", input, valid, got)
		}
	}

	optional := v
	optional.EmailRequired = false
	if msg := optional.ValidateEmail("  "); msg != "" {
		t.Fatalf("optional email should allow blank, got %q", msg)
	}
}

func TestValidatePasswordPresenceAndStrength(t *testing.T) {
	v := NewFieldValidators(i18n.LocaleEN)
	if v.ValidatePasswordPresence("") == "" {
		t.Fatalf("blank password should fail presence")
	}
	if v.ValidatePasswordPresence("x") != "" {
		t.Fatalf("any password should pass presence")
	}

	v.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireNumber: true}
	if got := v.ValidatePasswordStrength("short"); got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected min length message: %q", got)
	}
	if got := v.ValidatePasswordStrength("longenough1"); got != "Password must contain an uppercase letter" {
		t.Fatalf("unexpected upper message: %q", got)
	}
	if got := v.ValidatePasswordStrength("Longenough1"); got != "" {
		t.Fatalf("strong password rejected: %q", got)
	}
}

func TestValidateNameAndCity(t *testing.T) {
	v := NewFieldValidators(i18n.LocaleEN)
	if v.ValidateName("Jürgen") != "" {
		t.Fatalf("unicode letters should be valid names")
	}
	if v.ValidateName("Ann Marie") == "" {
		t.Fatalf("names with spaces should be rejected")
	}
	if v.ValidateName("R2D2") == "" {
		t.Fatalf("names with digits should be rejected")
	}
	if v.ValidateCity("New York") != "" {
		t.Fatalf("city with spaces should be valid")
	}
	if v.ValidateCity("Area 51") == "" {
		t.Fatalf("city with digits should be rejected")
	}
	if v.ValidateCity("   ") == "" {
		t.Fatalf("blank city should be required")
	}
}

func TestValidatePostalCode(t *testing.T) {
	v := NewFieldValidators(i18n.LocaleEN)
	if got := v.ValidatePostalCode("DE", "12345"); got != "" {
		t.Fatalf("DE 12345 should be valid, got %q", got)
	}
	if got := v.ValidatePostalCode("DE", ""); got == "" {
		t.Fatalf("empty postal code should fail")
	}
	if got := v.ValidatePostalCode("", "12345"); got != "Please select a country first" {
		t.Fatalf("missing country should ask for country, got %q", got)
	}
	got := v.ValidatePostalCode("DE", "1234")
	if !strings.Contains(got, "10115") {
		t.Fatalf("mismatch should name the example format, got %q", got)
	}
	if got := v.ValidatePostalCode("ZZ", "anything"); got != "" {
		t.Fatalf("unknown country should be unconstrained, got %q", got)
	}
}

func TestValidateAge(t *testing.T) {
	v := fixedValidators("2026-06-15")
	cases := []struct {
		name string
		dob  string
		min  int
		want string
	}{
		{name: "under minimum", dob: "2015-01-01", min: 13, want: "You must be at least 13 years old"},
		{name: "future", dob: "2027-01-01", min: 13, want: "Date of birth is in the future: not born yet"},
		{name: "birthday today", dob: "2013-06-15", min: 13, want: ""},
		{name: "birthday tomorrow", dob: "2013-06-16", min: 13, want: "You must be at least 13 years old"},
		{name: "adult", dob: "1990-02-28", min: 13, want: ""},
		{name: "default minimum", dob: "2020-01-01", min: 0, want: "You must be at least 13 years old"},
		{name: "bad format", dob: "15/06/2000", min: 13, want: "Date of birth must use the format YYYY-MM-DD"},
		{name: "blank", dob: "", min: 13, want: "Date of birth is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.ValidateAge(tc.dob, tc.min); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestValidateRegistrationCollectsFieldErrors(t *testing.T) {
	v := fixedValidators("2026-06-15")
	errs := v.ValidateRegistration(RegistrationInput{
		Email:       "bad",
		Password:    "",
		FirstName:   "Ann",
		LastName:    "L33t",
		DateOfBirth: "2020-01-01",
	})
	for _, field := range []string{"email", "password", "last_name", "date_of_birth"} {
		if errs[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
	if _, ok := errs["first_name"]; ok {
		t.Fatalf("first_name should be valid")
	}
	if errs.Err() == nil {
		t.Fatalf("expected non-nil error")
	}
}

func TestValidateFormUsesCountryForPostal(t *testing.T) {
	v := NewFieldValidators(i18n.LocaleZH)
	errs := v.ValidateForm(map[string]string{"country": "US", "postal_code": "ABCDE"})
	if !strings.Contains(errs["postal_code"], "94105") {
		t.Fatalf("expected zh postal format message, got %v", errs)
	}
	if len(v.ValidateForm(map[string]string{"country": "US", "postal_code": "94105"})) != 0 {
		t.Fatalf("valid postal should produce no errors")
	}
}
