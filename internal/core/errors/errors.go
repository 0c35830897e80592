package errors

import stderrors "errors"

const (
	HttpInternalError          = "internal_error"
	HttpInvalidJsonError       = "invalid_json"
	HttpUnknownFunctionError   = "unknown_function"
	HttpNotSupportedError      = "not_supported"
	HttpInvalidArgumentKind    = "invalid_argument_kind"
	HttpEmptyInputError        = "empty_input"
	HttpDivisionByZeroError    = "division_by_zero"
	HttpInvalidParameterRange  = "invalid_parameter_range"
	HttpArityError             = "arity_mismatch"
	HttpSheetNotFoundError     = "sheet_not_found"
	HttpBatchTooLargeError     = "batch_too_large"
	HttpRequestTooLargeError   = "request_too_large"
	HttpSheetCompilationFailed = "sheet_compilation_failed"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Formula error taxonomy. Functions wrap these with fmt.Errorf("%w: ...")
// so callers can match with errors.Is.
var (
	// ErrInvalidArgumentKind: input is not a sequence, or an element is
	// non-numeric where strict typing is required.
	ErrInvalidArgumentKind = stderrors.New("invalid argument kind")

	// ErrEmptyInput: a function requiring at least one element received none.
	ErrEmptyInput = stderrors.New("empty input")

	// ErrDivisionByZero: a denominator would be zero.
	ErrDivisionByZero = stderrors.New("division by zero")

	// ErrInvalidParameterRange: a parameter is outside its valid domain.
	ErrInvalidParameterRange = stderrors.New("invalid parameter range")

	// ErrNotSupported marks placeholder functions with no implementation.
	ErrNotSupported = stderrors.New("function not supported")

	ErrUnknownFunction = stderrors.New("unknown function")
	ErrArity           = stderrors.New("wrong number of arguments")
)

// Kind returns the HTTP error type for err, falling back to internal_error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrInvalidArgumentKind):
		return HttpInvalidArgumentKind
	case stderrors.Is(err, ErrEmptyInput):
		return HttpEmptyInputError
	case stderrors.Is(err, ErrDivisionByZero):
		return HttpDivisionByZeroError
	case stderrors.Is(err, ErrInvalidParameterRange):
		return HttpInvalidParameterRange
	case stderrors.Is(err, ErrNotSupported):
		return HttpNotSupportedError
	case stderrors.Is(err, ErrUnknownFunction):
		return HttpUnknownFunctionError
	case stderrors.Is(err, ErrArity):
		return HttpArityError
	default:
		return HttpInternalError
	}
}
