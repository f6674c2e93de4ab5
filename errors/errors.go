package errors

// DriverError is an error carrying additional context on top of one of the
// sentinel Errno values. One built by WithMessage unwraps to the error it
// extends, so errors.Is keeps matching the sentinel; one built by WrapError
// unwraps to the wrapped cause, so errors.Is matches the cause instead.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

type customDriverError struct {
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       message + ": " + e.message,
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       e.Error() + ": " + err.Error(),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
