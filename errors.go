package session

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingToken = "MISSING_TOKEN"
	TextCodeInvalidToken = "INVALID_TOKEN"
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	TextCodeEmailExists  = "EMAIL_EXISTS"
	TextCodeValidation   = "VALIDATION_ERROR"
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	TextCodeTokenUsed    = "TOKEN_USED"
	TextCodeServerError  = "SERVER_ERROR"
	TextCodeNetworkError = "NETWORK_ERROR"
	TextCodeUnknownError = "UNKNOWN_ERROR"
)

// ErrMissingToken is returned when a request requiring auth carries no token.
var ErrMissingToken = errors.New("no authentication token present", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when the backend rejects the bearer token.
var ErrInvalidToken = errors.New("authentication token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is returned when login is rejected.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrEmailExists is returned when registering with an email already in use.
var ErrEmailExists = errors.New("email already exists", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrValidation is returned when a payload fails field validation.
var ErrValidation = errors.New("payload failed validation", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when the bearer or reset token has expired.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenUsed is returned when a one-time reset token is replayed.
var ErrTokenUsed = errors.New("token has already been used", errors.CategoryAuth).
	WithTextCode(TextCodeTokenUsed).
	WithCode(errors.CodeBadRequest)

// ErrServer is returned when the backend reports an internal failure.
var ErrServer = errors.New("the server reported an internal error", errors.CategoryInternal).
	WithTextCode(TextCodeServerError).
	WithCode(errors.CodeInternal)

// ErrNetwork is returned when the request was sent but no response arrived.
var ErrNetwork = errors.New("could not reach the server", errors.CategoryOperation).
	WithTextCode(TextCodeNetworkError)

// ErrUnknown wraps failures that fit no other bucket.
var ErrUnknown = errors.New("an unexpected error occurred", errors.CategoryInternal).
	WithTextCode(TextCodeUnknownError).
	WithCode(errors.CodeInternal)

var canonicalErrors = map[string]*errors.Error{
	TextCodeMissingToken: ErrMissingToken,
	TextCodeInvalidToken: ErrInvalidToken,
	TextCodeInvalidCreds: ErrInvalidCredentials,
	TextCodeEmailExists:  ErrEmailExists,
	TextCodeValidation:   ErrValidation,
	TextCodeTokenExpired: ErrTokenExpired,
	TextCodeTokenUsed:    ErrTokenUsed,
	TextCodeServerError:  ErrServer,
	TextCodeNetworkError: ErrNetwork,
	TextCodeUnknownError: ErrUnknown,
}

// ErrorFromCode maps a backend error code onto the canonical taxonomy,
// keeping the server's own message when it provided one. Field-level
// validation details ride along in metadata under "fields".
func ErrorFromCode(code, message string, fields map[string]string) *errors.Error {
	canonical, ok := canonicalErrors[code]
	if !ok {
		canonical = ErrUnknown
	}

	err := canonical.Clone()
	if message != "" {
		err.Message = message
	}
	if len(fields) > 0 {
		err = err.WithMetadata(map[string]any{"fields": fields})
	}
	return err
}

// ErrorCode extracts the taxonomy code from any error. Errors from outside
// the pipeline collapse to UNKNOWN_ERROR.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr.TextCode
	}
	return TextCodeUnknownError
}

// FieldErrors returns the field->message validation map carried by err, or
// nil when there is none.
func FieldErrors(err error) map[string]string {
	var richErr *errors.Error
	if !errors.As(err, &richErr) || richErr.Metadata == nil {
		return nil
	}

	switch fields := richErr.Metadata["fields"].(type) {
	case map[string]string:
		return fields
	case map[string]any:
		out := make(map[string]string, len(fields))
		for k, v := range fields {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// IsTokenError reports whether err belongs to the token class, the class
// that always deauthenticates the session when raised by a session-bearing
// operation.
func IsTokenError(err error) bool {
	switch ErrorCode(err) {
	case TextCodeMissingToken, TextCodeInvalidToken, TextCodeTokenExpired, TextCodeTokenUsed:
		return true
	default:
		return false
	}
}

// IsCredentialError reports whether err is a user-facing credential problem:
// surfaced, never retried automatically, session untouched.
func IsCredentialError(err error) bool {
	switch ErrorCode(err) {
	case TextCodeInvalidCreds, TextCodeEmailExists, TextCodeValidation:
		return true
	default:
		return false
	}
}

// IsTransportError reports whether err means the backend was unreachable.
func IsTransportError(err error) bool {
	return ErrorCode(err) == TextCodeNetworkError
}

// AsRichError normalizes any error into a structured one so callers can rely
// on TextCode and Category being present.
func AsRichError(err error) *errors.Error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	return errors.Wrap(err, ErrUnknown.Category, ErrUnknown.Message).
		WithTextCode(TextCodeUnknownError)
}
