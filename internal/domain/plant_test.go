package domain_test

import (
	"errors"
	"testing"

	"plantcare/internal/domain"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "Fern", "Fern", false},
		{"surrounding spaces", "  Fern  ", "Fern", false},
		{"inner spaces kept", " Boston  Fern ", "Boston  Fern", false},
		{"empty", "", "", true},
		{"spaces only", "   ", "", true},
		{"tabs and newlines", "\t\n ", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.NormalizeName(tc.in)
			if tc.wantErr {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("NormalizeName(%q) error = %v; want ValidationError", tc.in, err)
				}
				if ve.Field != "name" {
					t.Errorf("Field = %q; want name", ve.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeName(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("NormalizeName(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestOptionalText(t *testing.T) {
	if got := domain.OptionalText(""); got != nil {
		t.Errorf("OptionalText(\"\") = %q; want nil", *got)
	}
	got := domain.OptionalText("Rosa")
	if got == nil || *got != "Rosa" {
		t.Errorf("OptionalText(\"Rosa\") = %v; want Rosa", got)
	}
}

func TestSpeciesOrEmpty(t *testing.T) {
	s := "Nephrolepis"
	if got := (domain.Plant{Species: &s}).SpeciesOrEmpty(); got != s {
		t.Errorf("got %q; want %q", got, s)
	}
	if got := (domain.Plant{}).SpeciesOrEmpty(); got != "" {
		t.Errorf("got %q; want empty", got)
	}
}
