package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on an input struct and wraps failures
// as validation errors. Client-side checks are bypassable, so every write
// path re-validates here.
func ValidateStruct(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", ErrorValidation, err.Error())
	}
	return nil
}

// ValidateMsisdn checks the 11-digit phone-number identifiers used as
// member, agent and momo numbers.
func ValidateMsisdn(field string, value string) error {
	if err := validate.Var(value, "required,len=11,numeric"); err != nil {
		return fmt.Errorf("%w: %s must be an 11-digit number", ErrorValidation, field)
	}
	return nil
}

// ValidateTransactionId checks the 10-digit transaction identifiers.
func ValidateTransactionId(value string) error {
	if err := validate.Var(value, "required,len=10,numeric"); err != nil {
		return fmt.Errorf("%w: transaction_id must be a 10-digit number", ErrorValidation)
	}
	return nil
}

// ValidateNationalId checks the 13-digit national ID numbers on onboarding
// entries.
func ValidateNationalId(value string) error {
	if err := validate.Var(value, "required,len=13,numeric"); err != nil {
		return fmt.Errorf("%w: id_number must be a 13-digit number", ErrorValidation)
	}
	return nil
}
