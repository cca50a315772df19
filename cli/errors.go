package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	NoURLSpecified   ErrorCode = "NoURLSpecified"
	InvalidFormat    ErrorCode = "InvalidFormat"
	InvalidArguments ErrorCode = "InvalidArguments"
	ContentNotRead   ErrorCode = "ContentNotRead"

	// ValidationFailed is returned when the report contains errors. The
	// report itself has already been printed.
	ValidationFailed ErrorCode = "ValidationFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
