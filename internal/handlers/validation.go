package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const msgAllFieldsRequired = "All fields are required"

// fieldMessages maps a failed "min" rule on a field to its user-facing message.
var fieldMessages = map[string]string{
	"Password": "Password should be at least 6 characters long",
	"Username": "Username should be at least 3 characters long",
}

// fieldOrder is the order in which length rules are reported.
var fieldOrder = []string{"Password", "Username"}

// validationMessage turns a validator error into the single message the API
// reports. Missing fields win over length rules, and length rules are
// reported in fieldOrder.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgAllFieldsRequired
	}

	failed := make(map[string]bool, len(verrs))
	for _, e := range verrs {
		if e.Tag() == "required" {
			return msgAllFieldsRequired
		}
		failed[e.Field()] = true
	}
	for _, field := range fieldOrder {
		if failed[field] {
			return fieldMessages[field]
		}
	}
	return msgAllFieldsRequired
}
