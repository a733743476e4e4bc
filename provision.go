/*
Copyright 2024 dBildungsplattform Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mailsync

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/internal/directory"
	"github.com/dBildungsplattform/mailsync/internal/mailerror"
	"github.com/dBildungsplattform/mailsync/internal/notification"
	"github.com/dBildungsplattform/mailsync/internal/oxmail"
	"github.com/dBildungsplattform/mailsync/internal/retry"
	"github.com/dBildungsplattform/mailsync/model"
)

// SetEmailAddressForPerson provisions a person's email identity across the
// mail-hosting and directory systems. It resolves the mail domain, determines
// the desired address, reconciles priorities so the desired address becomes
// primary, and drives both external systems to match.
//
// Callers only ever see four error codes: EMAIL_DOMAIN_NOT_FOUND and
// LDAP_EMAIL_DOMAIN for configuration problems, EMAIL_UPDATE_IN_PROGRESS when
// another run holds the pending slot, NOT_FOUND for a lost-update race during
// reconciliation, and EMAIL_ADDRESS_GENERATION_ATTEMPTS_EXCEEDED for
// everything else.
func (m *Mailsync) SetEmailAddressForPerson(ctx context.Context, params model.ProvisioningParams) (*model.EmailAddress, error) {
	address, err := m.setEmailAddress(ctx, params)
	if err != nil {
		switch {
		case mailerror.HasCode(err, mailerror.ErrEmailDomainNotFound),
			mailerror.HasCode(err, mailerror.ErrEmailUpdateInProgress),
			mailerror.HasCode(err, mailerror.ErrLdapEmailDomain),
			mailerror.HasCode(err, mailerror.ErrNotFound),
			mailerror.HasCode(err, mailerror.ErrGenerationAttemptsExceeded):
			return nil, err
		default:
			// Nothing unclassified may escape to the caller.
			logrus.WithFields(logrus.Fields{
				"person_id": params.PersonID,
			}).WithError(err).Error("unknown error during email synchronization")
			notification.NotifyError(err)
			return nil, mailerror.NewGenerationAttemptsExceeded(err)
		}
	}
	return address, nil
}

func (m *Mailsync) setEmailAddress(ctx context.Context, params model.ProvisioningParams) (*model.EmailAddress, error) {
	// Resolve the mail domain for the service provider.
	mailDomain, err := m.datasource.GetDomainByServiceProviderID(ctx, params.ServiceProviderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mailerror.New(mailerror.ErrEmailDomainNotFound,
				fmt.Sprintf("no email domain configured for service provider %s", params.ServiceProviderID), nil)
		}
		return nil, err
	}

	// Snapshot the person's addresses. The snapshot is the state this whole
	// run operates on; no re-reads happen later.
	addresses, err := m.datasource.GetEmailAddressesByPersonID(ctx, params.PersonID)
	if err != nil {
		return nil, err
	}
	for _, address := range addresses {
		if address.CurrentStatus == model.StatusPending {
			return nil, mailerror.New(mailerror.ErrEmailUpdateInProgress,
				fmt.Sprintf("an email update is already in progress for person %s", params.PersonID), nil)
		}
	}

	// Determine the desired address: reactivate an existing one or generate
	// a fresh candidate.
	desired, reactivated, err := m.determineDesiredAddress(ctx, params, mailDomain, addresses)
	if err != nil {
		return nil, err
	}

	// A reactivated address that is already the live primary needs no
	// reconciliation, no external calls and no new ledger entries.
	if reactivated && desired.IsPrimary() && desired.CurrentStatus == model.StatusActive {
		logrus.WithFields(logrus.Fields{
			"person_id": params.PersonID,
			"address":   desired.Address,
		}).Info("email address already active and primary, nothing to do")
		return desired, nil
	}

	if reactivated {
		if _, err := m.datasource.AppendStatus(ctx, desired.EmailAddressID, model.StatusActive); err != nil {
			return nil, err
		}
		desired.CurrentStatus = model.StatusActive
	}

	// Reconcile priorities so the desired address becomes primary.
	if desired.Priority != model.PrimaryPriority {
		if _, err := m.ReconcilePriority(ctx, params.PersonID, desired.EmailAddressID, model.PrimaryPriority); err != nil {
			return nil, err
		}
		desired.Priority = model.PrimaryPriority
	}

	// A primary address is never scheduled for deferred deletion. A demoted
	// address may have been swept before being reactivated, so the mark has
	// to go when the address takes the primary slot.
	desired.MarkedForCron = nil

	// Persisting PENDING is what serializes concurrent runs for one person;
	// the storage layer rejects a second pending row for the same person.
	if _, err := m.datasource.AppendStatus(ctx, desired.EmailAddressID, model.StatusPending); err != nil {
		if mailerror.HasCode(err, mailerror.ErrConflict) {
			return nil, mailerror.New(mailerror.ErrEmailUpdateInProgress,
				fmt.Sprintf("an email update is already in progress for person %s", params.PersonID), err)
		}
		return nil, err
	}
	desired.CurrentStatus = model.StatusPending

	if err := m.upsertMailHosting(ctx, params, addresses, desired); err != nil {
		return nil, err
	}

	if err := m.upsertDirectory(ctx, params, mailDomain, desired); err != nil {
		return nil, err
	}

	// Full success: persist the address as primary with the mail-hosting
	// counter attached and close the run with ACTIVE.
	if err := m.datasource.UpdateEmailAddress(ctx, desired); err != nil {
		return nil, err
	}
	if _, err := m.datasource.AppendStatus(ctx, desired.EmailAddressID, model.StatusActive); err != nil {
		return nil, err
	}
	desired.CurrentStatus = model.StatusActive

	logrus.WithFields(logrus.Fields{
		"person_id":  params.PersonID,
		"address":    desired.Address,
		"ox_user_id": desired.OXUserID,
	}).Info("email address synchronized")
	return desired, nil
}

// determineDesiredAddress asks the generator for a fresh candidate and
// decides between reactivating an existing address and adopting the
// candidate as a new one.
func (m *Mailsync) determineDesiredAddress(ctx context.Context, params model.ProvisioningParams, mailDomain string, addresses []model.EmailAddress) (*model.EmailAddress, bool, error) {
	candidate, genErr := m.generator.GenerateAvailableAddress(ctx, params.FirstName, params.LastName, mailDomain)
	if genErr != nil {
		m.recordGenerationFailure(ctx, addresses)
		return nil, false, mailerror.NewGenerationAttemptsExceeded(errors.Wrap(genErr, "address generation failed"))
	}

	for i := range addresses {
		if m.generator.IsEqualIgnoreCount(addresses[i].Address, candidate) {
			return &addresses[i], true, nil
		}
	}

	created, err := m.datasource.CreateEmailAddress(ctx, model.EmailAddress{
		Address:    candidate,
		PersonID:   params.PersonID,
		ExternalID: params.ExternalID,
		Priority:   nextFreePriority(addresses),
	})
	if err != nil {
		return nil, false, err
	}
	if _, err := m.datasource.AppendStatus(ctx, created.EmailAddressID, model.StatusRequested); err != nil {
		return nil, false, err
	}
	created.CurrentStatus = model.StatusRequested
	return &created, false, nil
}

// recordGenerationFailure marks the person's current primary address as
// FAILED so the ledger reflects the aborted run. A person without any address
// has nothing to mark.
func (m *Mailsync) recordGenerationFailure(ctx context.Context, addresses []model.EmailAddress) {
	if len(addresses) == 0 {
		return
	}
	primary := addresses[0]
	for _, address := range addresses[1:] {
		if address.Priority < primary.Priority {
			primary = address
		}
	}
	if _, err := m.datasource.AppendStatus(ctx, primary.EmailAddressID, model.StatusFailed); err != nil {
		logrus.WithFields(logrus.Fields{
			"email_address_id": primary.EmailAddressID,
		}).WithError(err).Error("could not record generation failure")
	}
}

// upsertMailHosting makes the mail-hosting account reference the desired
// address, creating the account on first provisioning. Every round trip is
// retried individually.
func (m *Mailsync) upsertMailHosting(ctx context.Context, params model.ProvisioningParams, addresses []model.EmailAddress, desired *model.EmailAddress) error {
	exists, err := retry.ExecuteWithRetry(ctx, func() (bool, error) {
		return m.ox.UserExists(ctx, params.LoginName, desired.OXUserID)
	}, m.retryAttempts, m.retryDelay)
	if err != nil {
		return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "ox existence check failed"))
	}

	oxUser := oxmail.User{
		Username:     params.LoginName,
		GivenName:    params.FirstName,
		SurName:      params.LastName,
		DisplayName:  params.LoginName,
		PrimaryEmail: desired.Address,
	}

	if !exists {
		created, err := retry.ExecuteWithRetry(ctx, func() (oxmail.CreatedUser, error) {
			return m.ox.CreateUser(ctx, oxUser)
		}, m.retryAttempts, m.retryDelay)
		if err != nil {
			return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "ox account creation failed"))
		}
		desired.OXUserID = created.UserID
		return nil
	}

	oxUser.Aliases = aliasChain(addresses, desired)
	identifier := desired.OXUserID
	if identifier == "" {
		identifier = params.LoginName
	}
	_, err = retry.ExecuteWithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, m.ox.ChangeUser(ctx, identifier, oxUser)
	}, m.retryAttempts, m.retryDelay)
	if err != nil {
		return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "ox account change failed"))
	}
	return nil
}

// upsertDirectory makes the directory entry for the person reference the
// desired address under the root resolved from the mail domain.
func (m *Mailsync) upsertDirectory(ctx context.Context, params model.ProvisioningParams, mailDomain string, desired *model.EmailAddress) error {
	root, err := m.resolver.ResolveRoot(mailDomain)
	if err != nil {
		return err
	}

	entry := directoryEntry(params, desired.Address)
	personExists, err := retry.ExecuteWithRetry(ctx, func() (bool, error) {
		return m.directory.PersonExists(ctx, root, params.ExternalID)
	}, m.retryAttempts, m.retryDelay)
	if err != nil {
		return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "directory search failed"))
	}

	if personExists {
		_, err = retry.ExecuteWithRetry(ctx, func() (struct{}, error) {
			return struct{}{}, m.directory.ModifyPerson(ctx, root, entry)
		}, m.retryAttempts, m.retryDelay)
		if err != nil {
			return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "directory modify failed"))
		}
		return nil
	}

	_, err = retry.ExecuteWithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, m.directory.CreatePerson(ctx, root, entry)
	}, m.retryAttempts, m.retryDelay)
	if err != nil {
		return m.recordExternalFailure(ctx, desired, errors.Wrap(err, "directory create failed"))
	}
	return nil
}

// recordExternalFailure writes the failure to the ledger first, so the last
// known state is never lost, then wraps the cause into the umbrella error.
// The one distinguishable mail-hosting conflict is recorded as
// EXISTS_ONLY_IN_OX, everything else as FAILED.
func (m *Mailsync) recordExternalFailure(ctx context.Context, desired *model.EmailAddress, cause error) error {
	status := model.StatusFailed
	if errors.Is(cause, oxmail.ErrMailboxExists) {
		status = model.StatusExistsOnlyInOX
	}
	if _, err := m.datasource.AppendStatus(ctx, desired.EmailAddressID, status); err != nil {
		logrus.WithFields(logrus.Fields{
			"email_address_id": desired.EmailAddressID,
			"status":           status,
		}).WithError(err).Error("could not record failure status")
	} else {
		desired.CurrentStatus = status
	}
	return mailerror.NewGenerationAttemptsExceeded(cause)
}

// aliasChain accumulates the person's disabled addresses most-recent-first
// and terminates the chain with the desired address.
func aliasChain(addresses []model.EmailAddress, desired *model.EmailAddress) []string {
	var disabled []model.EmailAddress
	for _, address := range addresses {
		if address.EmailAddressID == desired.EmailAddressID {
			continue
		}
		if address.CurrentStatus == model.StatusDisabled {
			disabled = append(disabled, address)
		}
	}
	sort.SliceStable(disabled, func(i, j int) bool {
		return disabled[i].UpdatedAt.After(disabled[j].UpdatedAt)
	})

	aliases := make([]string, 0, len(disabled)+1)
	for _, address := range disabled {
		aliases = append(aliases, address.Address)
	}
	return append(aliases, desired.Address)
}

func directoryEntry(params model.ProvisioningParams, address string) directory.PersonEntry {
	return directory.PersonEntry{
		ExternalID:   params.ExternalID,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		DisplayName:  params.LoginName,
		EmailAddress: address,
		Kennungen:    params.Kennungen,
	}
}

func nextFreePriority(addresses []model.EmailAddress) int {
	next := 0
	for _, address := range addresses {
		if address.Priority >= next {
			next = address.Priority + 1
		}
	}
	return next
}
