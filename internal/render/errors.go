package render

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	ErrMalformedFrame           = errors.New("malformed frame")
	ErrFrameIndex               = errors.New("frame index out of range")
)

// UnsupportedConfigurationError reports a render setting that cannot be
// applied. It is returned when the setting is made, never deferred to render time.
type UnsupportedConfigurationError struct {
	Field string
	Value string
}

func (e *UnsupportedConfigurationError) Error() string {
	if e == nil {
		return ErrUnsupportedConfiguration.Error()
	}
	if e.Value == "" {
		return fmt.Sprintf("unsupported %s", e.Field)
	}
	return fmt.Sprintf("unsupported %s: %s", e.Field, e.Value)
}

func (e *UnsupportedConfigurationError) Unwrap() error {
	return ErrUnsupportedConfiguration
}

func unsupported(field, value string) error {
	return &UnsupportedConfigurationError{Field: field, Value: value}
}

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFrame, fmt.Sprintf(format, args...))
}
