package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/siteforge-io/siteforge-go/validate"
)

type captureModel struct {
	URL    string `json:"url" validate:"required,url"`
	Width  int    `json:"width" validate:"omitempty,gt=0"`
	Format string `json:"format" validate:"omitempty,oneof=png jpeg"`
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name      string
		model     captureModel
		wantField string
	}{
		{
			name:  "valid",
			model: captureModel{URL: "https://example.com", Width: 800, Format: "png"},
		},
		{
			name:      "missing required",
			model:     captureModel{Width: 800},
			wantField: "url",
		},
		{
			name:      "bad url",
			model:     captureModel{URL: "not a url"},
			wantField: "url",
		},
		{
			name:      "negative width",
			model:     captureModel{URL: "https://example.com", Width: -1},
			wantField: "width",
		},
		{
			name:      "unknown format",
			model:     captureModel{URL: "https://example.com", Format: "bmp"},
			wantField: "format",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.Check(tc.model)

			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}

			var fields validate.FieldErrors
			if !errors.As(err, &fields) {
				t.Fatalf("expected FieldErrors, got %T: %v", err, err)
			}

			found := false
			for _, f := range fields {
				if f.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a field error for %q, got: %v", tc.wantField, fields)
			}
		})
	}
}

func TestCheck_RequiredMessage(t *testing.T) {
	err := validate.Check(captureModel{})

	var fields validate.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if !strings.Contains(fields.Error(), "This field is required") {
		t.Errorf("expected the custom required message, got %q", fields.Error())
	}
}

func TestCheck_UsesJSONTagNames(t *testing.T) {
	type model struct {
		DisplayName string `json:"display_name" validate:"required"`
	}

	err := validate.Check(model{})

	var fields validate.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fields[0].Field != "display_name" {
		t.Errorf("expected json tag name display_name, got %q", fields[0].Field)
	}
}
