package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline failure taxonomy. Validation errors
// (ErrInvalidRange, ErrUnknownFilter, ErrOutOfRange) are reported
// synchronously and never reach the engine. Engine errors (ErrTransformFailed,
// ErrTransformTimeout, ErrUnsupportedFormat) surface as rejected operation
// results without touching project lifecycle status.
var (
	ErrEngineNotReady    = errors.New("engine not ready")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidRange      = errors.New("invalid range")
	ErrUnknownFilter     = errors.New("unknown filter")
	ErrTransformFailed   = errors.New("transform failed")
	ErrTransformTimeout  = errors.New("transform timeout")
	ErrOutOfRange        = errors.New("out of range")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransformFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsValidation reports whether an error belongs to the synchronous validation
// class that must be rejected before any engine work starts.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownFilter) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrValidation)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
