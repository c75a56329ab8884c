package identity

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable identity failure reason.
type Code string

const (
	CodeEmailAlreadyInUse   Code = "email-already-in-use"
	CodeInvalidEmail        Code = "invalid-email"
	CodeOperationNotAllowed Code = "operation-not-allowed"
	CodeWeakPassword        Code = "weak-password"
	CodeUserDisabled        Code = "user-disabled"
	CodeUserNotFound        Code = "user-not-found"
	CodeWrongPassword       Code = "wrong-password"
	CodeInvalidCredential   Code = "invalid-credential"
	CodeTooManyRequests     Code = "too-many-requests"
	CodeRequiresRecentLogin Code = "requires-recent-login"
	CodeExpiredActionCode   Code = "expired-action-code"
)

const genericMessage = "Authentication failed. Please try again."

var messages = map[Code]string{
	CodeEmailAlreadyInUse:   "This email address is already in use.",
	CodeInvalidEmail:        "The email address is not valid.",
	CodeOperationNotAllowed: "This operation is not allowed.",
	CodeWeakPassword:        "Passwords must be at least 6 characters.",
	CodeUserDisabled:        "This account has been disabled.",
	CodeUserNotFound:        "No account exists for this email address.",
	CodeWrongPassword:       "The password is incorrect.",
	CodeInvalidCredential:   "The email address or password is incorrect.",
	CodeTooManyRequests:     "Too many failed attempts. Please try again later.",
	CodeRequiresRecentLogin: "Please sign in again to continue.",
	CodeExpiredActionCode:   "This link has expired or was already used.",
}

// Message returns the user-facing text for code. Unknown codes get a generic message.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return genericMessage
}

// Error is returned for every expected identity failure.
// Store and hashing failures are returned as plain wrapped errors instead.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s", e.Code)
}

// Message returns the user-facing text of the error.
func (e *Error) Message() string {
	return Message(e.Code)
}

func newError(code Code) *Error {
	return &Error{Code: code}
}

// CodeOf extracts the code of an identity error anywhere in err's chain.
func CodeOf(err error) (Code, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code, true
	}
	return "", false
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
