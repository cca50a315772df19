package api

// ErrorCode defines error types for API operations
type ErrorCode string

const (
	// ErrValidatorOutput represents a report the validator produced but that
	// could not be read
	ErrValidatorOutput ErrorCode = "ValidatorOutput"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
