package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidData marks format violations: bad magic, wrong edition,
	// section number mismatch, short sections, unknown template numbers and
	// out-of-range level indices.
	ErrInvalidData = errors.New("invalid format")

	// ErrUnsupported marks recognised but unimplemented variants.
	ErrUnsupported = errors.New("unsupported feature")
)

// InvalidDataf returns an error wrapping ErrInvalidData.
func InvalidDataf(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...)))
}

// Unsupportedf returns an error wrapping ErrUnsupported.
func Unsupportedf(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...)))
}
