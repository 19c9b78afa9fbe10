package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"fleet/shared/failure"
	"fleet/shared/validator"
)

type bookingPayload struct {
	ClientName string  `json:"client_name" validate:"required,max=100"`
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
	StartDate  string  `json:"start_date"  validate:"required,dateonly"`
	EndDate    string  `json:"end_date"    validate:"required,dateonly"`
}

func TestValidate_Valid(t *testing.T) {
	body := strings.NewReader(`{"client_name":"Alice","amount_paid":120,"start_date":"2026-08-01","end_date":"2026-08-03"}`)

	payload := bookingPayload{}
	if err := validator.Validate(body, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload.ClientName != "Alice" || payload.AmountPaid != 120 {
		t.Errorf("payload not decoded: %+v", payload)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	body := strings.NewReader(`{"amount_paid":120,"start_date":"2026-08-01","end_date":"2026-08-03"}`)

	payload := bookingPayload{}
	err := validator.Validate(body, &payload)

	if err == nil {
		t.Fatal("expected a validation error")
	}

	if failure.GetCode(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", failure.GetCode(err))
	}
}

func TestValidate_BadJSON(t *testing.T) {
	payload := bookingPayload{}
	err := validator.Validate(strings.NewReader("{nope"), &payload)

	if err == nil {
		t.Fatal("expected a decoding error")
	}

	if failure.GetCode(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", failure.GetCode(err))
	}
}

func TestValidate_Dateonly(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"iso date", "2026-08-23", true},
		{"wrong order", "23-08-2026", false},
		{"slashes", "2026/08/23", false},
		{"with time", "2026-08-23T10:00:00Z", false},
		{"nonsense month", "2026-13-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.value, "dateonly")

			if tt.valid && err != nil {
				t.Errorf("expected %q to pass, got %v", tt.value, err)
			}

			if !tt.valid && err == nil {
				t.Errorf("expected %q to fail", tt.value)
			}
		})
	}
}

func TestValidateVar_Negative(t *testing.T) {
	if err := validator.ValidateVar(-1.0, "gte=0"); err == nil {
		t.Error("expected negative amount to fail")
	}
}
