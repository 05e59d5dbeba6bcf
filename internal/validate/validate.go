package validate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"stockpoller/internal/model"
)

// ErrMissingVolume is returned when the data map has no integral,
// non-negative volume field.
var ErrMissingVolume = errors.New("data.volume must be a non-negative integer")

// Validator checks normalized quotes before they are allowed onto the queue.
type Validator struct {
	v      *validator.Validate
	logger *slog.Logger
}

// New creates a Validator.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		v:      validator.New(validator.WithRequiredStructEnabled()),
		logger: logger,
	}
}

// Check returns the first rule violation for q, or nil when every rule
// passes. It never mutates the quote. Rules:
//
//   - symbol: non-empty, alphabetic characters only
//   - price: >= 0
//   - timestamp: non-empty string
//   - source: non-empty
//   - data: present, every value >= 0
//   - data.volume: present, integral, >= 0
func (val *Validator) Check(q model.Quote) error {
	if err := val.v.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %s failed rule %q", fe.Field(), fe.Tag())
		}
		return err
	}

	vol, ok := q.Volume()
	if !ok || vol < 0 {
		return ErrMissingVolume
	}

	return nil
}

// Validate reports whether q passes every rule, logging the reason on
// failure.
func (val *Validator) Validate(q model.Quote) bool {
	if err := val.Check(q); err != nil {
		val.logger.Warn("quote validation failed",
			"symbol", q.Symbol,
			"source", q.Source,
			"error", err,
		)
		return false
	}
	return true
}
