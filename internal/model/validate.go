package model

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed argument. It is always raised before
// any state is touched.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// CheckValidString fails if value is empty, whitespace only, or contains
// characters outside printable ASCII.
func CheckValidString(value, param string) error {
	if value == "" {
		return &ValidationError{Param: param, Reason: "empty string"}
	}
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Param: param, Reason: "whitespace only"}
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x20 || c > 0x7e {
			return &ValidationError{Param: param, Reason: fmt.Sprintf("non-printable ascii at byte %d", i)}
		}
	}
	return nil
}

// CheckNotEmptyBytes fails on a nil or zero-length slice.
func CheckNotEmptyBytes(value []byte, param string) error {
	if len(value) == 0 {
		return &ValidationError{Param: param, Reason: "empty bytes"}
	}
	return nil
}

// CheckPositiveInt fails if value <= 0.
func CheckPositiveInt(value int, param string) error {
	if value <= 0 {
		return &ValidationError{Param: param, Reason: fmt.Sprintf("must be positive, got %d", value)}
	}
	return nil
}
