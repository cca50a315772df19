package output

type ErrorCode string

const (
	ErrInvalidOutput ErrorCode = "InvalidOutput"
)
