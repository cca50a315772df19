package config

type ErrorCode string

const (
	ErrMissingURL      ErrorCode = "MissingURL"
	ErrInvalidSeverity ErrorCode = "InvalidSeverity"
	ErrInvalidFlag     ErrorCode = "InvalidFlag"
	ErrInvalidConfig   ErrorCode = "InvalidConfig"
)
