package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var validate = newValidator()

// newValidator reports fields by their yaml names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Struct tags (range, ordering) ===
	if err := validate.Struct(cfg); err != nil {
		return toValidationError(err)
	}

	// === Weights ===
	if err := validateWeightsPositive(cfg.Weights.Sum()); err != nil {
		return ValidationError{"weights", err.Error()}
	}

	// === Debate ===
	if cfg.Debate.BaseConfidence > cfg.Debate.MaxConfidence {
		return ValidationError{"debate.base_confidence", "must be <= max_confidence"}
	}
	if cfg.Debate.EmptyConfidence > cfg.Debate.MaxConfidence {
		return ValidationError{"debate.empty_confidence", "must be <= max_confidence"}
	}

	// === Analysts ===
	if cfg.Analysts.Timeout <= 0 {
		return ValidationError{"analysts.timeout", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if math.Abs(cfg.Weights.Sum()-1.0) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_NOT_NORMALIZED",
			Message: fmt.Sprintf("primary weights sum to %.4f; composite is still normalized by present inputs", cfg.Weights.Sum()),
		})
	}

	if cfg.Debate.BullBias != cfg.Debate.BearBias {
		warnings = append(warnings, Warning{
			Code:    "ASYMMETRIC_BIAS",
			Message: "bull_bias != bear_bias: debate favors one side",
		})
	}

	if cfg.Analysts.Timeout.Seconds() > 60 {
		warnings = append(warnings, Warning{
			Code:    "LONG_TIMEOUT",
			Message: "analyst timeout > 60s: a stuck source delays every run",
		})
	}

	return warnings
}

// === Helper Functions ===

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	// "Config.weights.technical" → "weights.technical"
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return ValidationError{Field: field, Message: fieldErrorMessage(fe)}
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be < %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "ltfield":
		return fmt.Sprintf("must be < %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

func validateWeightsPositive(sum float64) error {
	if sum <= 0 {
		return errors.New("at least one weight must be > 0")
	}
	return nil
}
