package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate validates the entire configuration.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Cross-field
	if cfg.Engine.BalanceTolerance > cfg.Engine.AcceptableBalanceError {
		return fmt.Errorf("balance_tolerance (%g) cannot exceed acceptable_balance_error (%g)",
			cfg.Engine.BalanceTolerance, cfg.Engine.AcceptableBalanceError)
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s=%s violated\n", field, tag, fieldError.Param())
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v' (one of: %s)\n", field, fieldError.Value(), fieldError.Param())
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
