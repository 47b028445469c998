package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrRecipeParse ErrorType = iota
	ErrLint
	ErrResolve
	ErrSource
	ErrBuild
	ErrPackaging
	ErrChannel
	ErrSigning
	ErrFileOp
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrRecipeParse:
		return "RecipeParse"
	case ErrLint:
		return "Lint"
	case ErrResolve:
		return "Resolve"
	case ErrSource:
		return "Source"
	case ErrBuild:
		return "Build"
	case ErrPackaging:
		return "Packaging"
	case ErrChannel:
		return "Channel"
	case ErrSigning:
		return "Signing"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// CondagenError represents an error during recipe processing
type CondagenError struct {
	Type    ErrorType
	Subject string
	Err     error
}

// Error implements the error interface
func (e *CondagenError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *CondagenError) Unwrap() error {
	return e.Err
}
