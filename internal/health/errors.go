package health

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDivideByZero = errors.New("divide by zero")
)

// InsufficientDataError lists the metrics that had no non-zero day in the week.
// It matches ErrDivideByZero with errors.Is.
type InsufficientDataError struct {
	Metrics []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: no tracked days for: %s", ErrDivideByZero, strings.Join(e.Metrics, ", "))
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrDivideByZero
}
