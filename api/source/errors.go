package source

type ErrorCode string

const (
	ErrInvalidURI        ErrorCode = "InvalidURI"
	ErrInvalidSource     ErrorCode = "InvalidSource"
	ErrDuplicateLocalURI ErrorCode = "DuplicateLocalURI"
)
