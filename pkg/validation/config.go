package validation

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ConfigValidator accumulates configuration problems so an operator sees
// all of them in one startup failure. Each message is prefixed with
// "<name>.<field>: ".
type ConfigValidator struct {
	name   string
	errors []error
}

func NewConfigValidator(name string) *ConfigValidator {
	return &ConfigValidator{name: name}
}

func (cv *ConfigValidator) add(field string, err error) *ConfigValidator {
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	return cv
}

func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value != "" {
		return cv
	}
	return cv.add(field, errors.New("required field is empty"))
}

func (cv *ConfigValidator) MinInt(field string, value, min int) *ConfigValidator {
	if value >= min {
		return cv
	}
	return cv.add(field, fmt.Errorf("value %d is below minimum %d", value, min))
}

func (cv *ConfigValidator) PositiveDuration(field string, value time.Duration) *ConfigValidator {
	if value > 0 {
		return cv
	}
	return cv.add(field, fmt.Errorf("duration %s must be positive", value))
}

// OneOf rejects a value outside allowed.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	if slices.Contains(allowed, value) {
		return cv
	}
	return cv.add(field, fmt.Errorf("value %q must be one of %v", value, allowed))
}

// Custom records fn's error; errors.Is still matches sentinels through it.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		return cv.add(field, err)
	}
	return cv
}

// When runs validations only if condition holds.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

func (cv *ConfigValidator) Errors() []error {
	return cv.errors
}

// Validate joins every recorded problem, or returns nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errors...)
}
