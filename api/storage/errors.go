package storage

type ErrorCode string

const (
	ErrCreateDir ErrorCode = "CreateDir"
	ErrWrite     ErrorCode = "Write"
	ErrRead      ErrorCode = "Read"
	ErrRegister  ErrorCode = "Register"
)
