package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrValidation marks a build failure caused by the shader or the
	// pipeline description. The device is still usable and the previous
	// pipeline keeps drawing.
	ErrValidation = errors.New("pipeline: validation failed")

	// ErrShaderCompile marks a shader that failed to parse or lower.
	// It always implies ErrValidation.
	ErrShaderCompile = errors.New("pipeline: shader compilation failed")
)

// CompileError reports a shader that could not be compiled.
type CompileError struct {
	// Stage is "vertex" or "fragment".
	Stage string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader: %v", e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is matches ErrShaderCompile and ErrValidation.
func (e *CompileError) Is(target error) bool {
	return target == ErrShaderCompile || target == ErrValidation
}

// ValidationError reports a device object that the backend rejected
// while the device itself stayed healthy.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// classify wraps a backend error. Device loss and memory exhaustion are
// returned as-is so callers treat them as fatal; anything else is a
// validation failure of the objects being built.
func classify(op string, err error) error {
	if errors.Is(err, hal.ErrDeviceLost) || errors.Is(err, hal.ErrDeviceOutOfMemory) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &ValidationError{Op: op, Err: err}
}

// IsValidation reports whether err leaves the device usable.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
