package mailerror

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	// ErrEmailDomainNotFound is returned when no mail domain is configured for
	// a service provider. Terminal, never retried.
	ErrEmailDomainNotFound ErrorCode = "EMAIL_DOMAIN_NOT_FOUND"
	// ErrEmailUpdateInProgress is returned when another update for the same
	// person is still pending. The caller is expected to retry later.
	ErrEmailUpdateInProgress ErrorCode = "EMAIL_UPDATE_IN_PROGRESS"
	// ErrLdapEmailDomain is returned when a mail domain maps to no known
	// directory root. Terminal, never retried.
	ErrLdapEmailDomain ErrorCode = "LDAP_EMAIL_DOMAIN"
	// ErrGenerationAttemptsExceeded is the umbrella code for every failure
	// during address generation or either external upsert.
	ErrGenerationAttemptsExceeded ErrorCode = "EMAIL_ADDRESS_GENERATION_ATTEMPTS_EXCEEDED"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrConflict                   ErrorCode = "CONFLICT"
)

// MailError is the error type surfaced by the synchronization engine. It
// carries the original cause for logging while callers dispatch on Code only.
type MailError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e MailError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e MailError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, cause error) MailError {
	return MailError{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// NewGenerationAttemptsExceeded wraps a failure from the generator or an
// external system into the single umbrella error callers see, logging the
// underlying cause.
func NewGenerationAttemptsExceeded(cause error) MailError {
	logrus.WithError(cause).Error("email address synchronization failed")
	return MailError{
		Code:    ErrGenerationAttemptsExceeded,
		Message: "email address could not be provisioned",
		Err:     cause,
	}
}

// HasCode reports whether err is a MailError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var mailErr MailError
	if errors.As(err, &mailErr) {
		return mailErr.Code == code
	}
	return false
}
