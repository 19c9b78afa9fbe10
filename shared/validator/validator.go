package validator

import (
	"encoding/json"
	"fmt"
	"io"

	"fleet/shared/failure"

	val "github.com/go-playground/validator/v10"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	// dateonly accepts ISO-8601 calendar dates, the granularity every
	// booking interval and expense date is exchanged at.
	err := validate.RegisterValidation("dateonly", func(fl val.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		if value == "" {
			return true
		}

		return isDateOnly(value)
	})
	if err != nil {
		panic(err)
	}
}

func isDateOnly(value string) bool {
	if len(value) != 10 {
		return false
	}

	_, err := parseDate(value)

	return err == nil
}

// Validate decodes the request body into the given struct and validates it
// against its struct tags. Failures are returned as typed bad requests.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)

	if err := decoder.Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)
	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)
	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
