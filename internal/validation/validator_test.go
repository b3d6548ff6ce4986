// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package validation

import (
	"strings"
	"testing"
)

type testSignup struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type testReview struct {
	StoreName string  `json:"store_name" validate:"required"`
	Rating    float64 `json:"rating" validate:"gte=1,lte=5,halfstep"`
}

type testEvent struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time string `json:"time" validate:"omitempty,timeofday"`
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	cases := []interface{}{
		&testSignup{Email: "a@example.com", Username: "thrift_fan", Password: "longenough"},
		&testReview{StoreName: "Goodwill", Rating: 4.5},
		&testEvent{Name: "Swap", Date: "2030-06-15", Time: "10:30"},
		&testEvent{Name: "Swap"},
	}
	for _, c := range cases {
		if err := ValidateStruct(c); err != nil {
			t.Errorf("ValidateStruct(%+v) = %v", c, err)
		}
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&testReview{Rating: 4})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("expected one error, got %v", err.Errors())
	}
	fe := err.Errors()[0]
	if fe.Field() != "store_name" || fe.Tag() != "required" {
		t.Errorf("unexpected field error %s/%s", fe.Field(), fe.Tag())
	}
	if fe.Error() != "store_name is required" {
		t.Errorf("unexpected message %q", fe.Error())
	}
}

func TestCustomTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
		tag  string
	}{
		{"rating off step", &testReview{StoreName: "A", Rating: 3.3}, "halfstep"},
		{"rating too high", &testReview{StoreName: "A", Rating: 5.5}, "lte"},
		{"bad time", &testEvent{Name: "A", Time: "25:99"}, "timeofday"},
		{"bad date", &testEvent{Name: "A", Date: "06/15/2030"}, "datetime"},
		{"short username", &testSignup{Email: "a@example.com", Username: "ab", Password: "longenough"}, "username"},
		{"username spaces", &testSignup{Email: "a@example.com", Username: "a b c", Password: "longenough"}, "username"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := err.Errors()[0].Tag(); got != tt.tag {
				t.Errorf("expected tag %q, got %q", tt.tag, got)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&testReview{StoreName: "A", Rating: 0}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" || single.Details["field"] != "rating" {
		t.Errorf("unexpected single error %+v", single)
	}

	multi := ValidateStruct(&testSignup{}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Fatalf("expected three field entries, got %+v", multi.Details)
	}
	if !strings.Contains(multi.Message, "email is required") || !strings.Contains(multi.Message, "password is required") {
		t.Errorf("unexpected message %q", multi.Message)
	}
}

func TestMinMaxMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&testSignup{Email: "a@example.com", Username: "thrift_fan", Password: "short"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Errors()[0].Error(); got != "password must be at least 8 characters" {
		t.Errorf("unexpected message %q", got)
	}
}
