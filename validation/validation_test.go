package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/connector/errors"
)

type limits struct {
	PermitsPerPeriod int           `mapstructure:"permits_per_period" validate:"gt=0"`
	Period           time.Duration `mapstructure:"period" validate:"gt=0"`
}

type endpoint struct {
	Name       string  `mapstructure:"name" validate:"required"`
	Retries    int     `mapstructure:"retries" validate:"gte=0"`
	Threshold  float64 `mapstructure:"failure_rate_threshold" validate:"gt=0,lte=100"`
	Limits     limits  `mapstructure:"rate_limit"`
	Address    string  `validate:"omitempty,hostname_port"`
}

func validEndpoint() endpoint {
	return endpoint{
		Name:      "orders",
		Threshold: 50,
		Limits:    limits{PermitsPerPeriod: 10, Period: time.Second},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validEndpoint()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*endpoint)
		field   string
		message string
	}{
		{"missing name", func(e *endpoint) { e.Name = "" }, "name", "is required"},
		{"negative retries", func(e *endpoint) { e.Retries = -1 }, "retries", "must be at least 0"},
		{"threshold above 100", func(e *endpoint) { e.Threshold = 120 }, "failure_rate_threshold", "must be at most 100"},
		{"nested field", func(e *endpoint) { e.Limits.Period = 0 }, "rate_limit.period", "must be greater than 0"},
		{"bad address", func(e *endpoint) { e.Address = "nohost" }, "address", "must be a host:port address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := validEndpoint()
			tt.mutate(&ep)

			err := Validate(ep)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != errors.ErrCodeInvalidInput {
				t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
			}
			fields, ok := appErr.Details["fields"].([]FieldError)
			if !ok || len(fields) != 1 {
				t.Fatalf("expected one field error, got %v", appErr.Details["fields"])
			}
			if fields[0].Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, fields[0].Field)
			}
			if fields[0].Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, fields[0].Message)
			}
			if !strings.Contains(appErr.Message, tt.field) {
				t.Errorf("expected message to name the field, got %q", appErr.Message)
			}
		})
	}
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":             "name",
		"ConcurrencyLimit": "concurrency_limit",
		"url":              "url",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
