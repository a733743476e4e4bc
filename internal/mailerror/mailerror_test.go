package mailerror

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(ErrEmailDomainNotFound, "no email domain configured", nil)
	assert.True(t, HasCode(err, ErrEmailDomainNotFound))
	assert.False(t, HasCode(err, ErrNotFound))
}

func TestHasCode_WrappedChain(t *testing.T) {
	inner := New(ErrConflict, "another update is already pending for this person", nil)
	wrapped := errors.Wrap(inner, "appending pending status")
	assert.True(t, HasCode(wrapped, ErrConflict))
}

func TestHasCode_OuterCodeWins(t *testing.T) {
	inner := New(ErrConflict, "pending slot taken", nil)
	outer := New(ErrEmailUpdateInProgress, "an email update is already in progress", inner)
	assert.True(t, HasCode(outer, ErrEmailUpdateInProgress))
	assert.False(t, HasCode(outer, ErrConflict))
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("boom"), ErrNotFound))
	assert.False(t, HasCode(nil, ErrNotFound))
}

func TestMailError_Message(t *testing.T) {
	withCause := New(ErrGenerationAttemptsExceeded, "email address could not be provisioned", errors.New("dial tcp: refused"))
	assert.Contains(t, withCause.Error(), "EMAIL_ADDRESS_GENERATION_ATTEMPTS_EXCEEDED")
	assert.Contains(t, withCause.Error(), "dial tcp: refused")

	withoutCause := New(ErrLdapEmailDomain, "no directory root configured", nil)
	assert.Equal(t, "LDAP_EMAIL_DOMAIN: no directory root configured", withoutCause.Error())
}

func TestNewGenerationAttemptsExceeded_KeepsCause(t *testing.T) {
	cause := errors.New("ox unavailable")
	err := NewGenerationAttemptsExceeded(cause)
	assert.True(t, HasCode(err, ErrGenerationAttemptsExceeded))
	assert.True(t, errors.Is(err, cause))
}
