package forms

import (
	"errors"
	"testing"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Secret#123", true},
		{"Aa1-aaaa", true},
		{"Aa1-aaa", false},     // too short
		{"secret#123", false},  // no upper
		{"SECRET#123", false},  // no lower
		{"Secret#abc", false},  // no digit
		{"Secret1234", false},  // no special
		{"Secret_123", false},  // underscore is not in the special set
		{"", false},
	}

	for _, tt := range tests {
		if got := IsStrongPassword(tt.password); got != tt.want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestValidate_Login(t *testing.T) {
	v := New()

	if err := v.Validate(LoginForm{Email: "ada@example.com", Password: "secret"}); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	err := v.Validate(LoginForm{Email: "not-an-email", Password: "short"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	if got := verrs.Field("email"); got != "Please enter a valid email address" {
		t.Errorf("unexpected email message %q", got)
	}
	if got := verrs.Field("password"); got != "Password must be at least 6 characters" {
		t.Errorf("unexpected password message %q", got)
	}

	err = v.Validate(LoginForm{})
	errors.As(err, &verrs)
	if got := verrs.Field("email"); got != "Email is required" {
		t.Errorf("unexpected required message %q", got)
	}
}

func TestValidate_Register(t *testing.T) {
	v := New()

	valid := RegisterForm{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#123",
	}
	if err := v.Validate(valid); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RegisterForm)
		field  string
		want   string
	}{
		{"short first name", func(f *RegisterForm) { f.FirstName = "A" }, "firstName", "First name must be at least 2 characters"},
		{"missing last name", func(f *RegisterForm) { f.LastName = "" }, "lastName", "Last name is required"},
		{"weak password", func(f *RegisterForm) { f.Password = "password"; f.ConfirmPassword = "password" }, "password", StrongPasswordMessage},
		{"mismatch", func(f *RegisterForm) { f.ConfirmPassword = "Secret#124" }, "confirmPassword", "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)

			err := v.Validate(form)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if got := verrs.Field(tt.field); got != tt.want {
				t.Errorf("field %s: got %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestValidate_Settings(t *testing.T) {
	v := New()

	err := v.Validate(SettingsForm{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Language: "de"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got := verrs.Field("language"); got != "Language must be one of: en, vi, ja, fr" {
		t.Errorf("unexpected language message %q", got)
	}
	if verrs.Error() != "Language must be one of: en, vi, ja, fr" {
		t.Errorf("unexpected joined message %q", verrs.Error())
	}
}

func TestTranslate_PassesOtherErrorsThrough(t *testing.T) {
	if Translate(nil) != nil {
		t.Error("expected nil for nil")
	}
	other := errors.New("unexpected EOF")
	if got := Translate(other); got != other {
		t.Errorf("expected error to pass through, got %v", got)
	}
}
