package mailsync

import (
	"context"

	"github.com/dBildungsplattform/mailsync/model"
)

// AppendStatus adds an immutable record to an address's status history.
func (m *Mailsync) AppendStatus(ctx context.Context, emailAddressID string, status model.Status) (model.StatusRecord, error) {
	return m.datasource.AppendStatus(ctx, emailAddressID, status)
}

// CurrentStatus returns the most recent status record for an address, or nil
// for a brand-new address without any history.
func (m *Mailsync) CurrentStatus(ctx context.Context, emailAddressID string) (*model.StatusRecord, error) {
	return m.datasource.GetCurrentStatus(ctx, emailAddressID)
}

// StatusHistory returns the full status history of an address ordered
// most-recent-first.
func (m *Mailsync) StatusHistory(ctx context.Context, emailAddressID string) ([]model.StatusRecord, error) {
	return m.datasource.GetStatusHistory(ctx, emailAddressID)
}

// DisableEmailAddress records that an address was taken out of service.
// Disabled addresses are later accumulated as aliases on the mail-hosting
// account.
func (m *Mailsync) DisableEmailAddress(ctx context.Context, emailAddressID string) error {
	_, err := m.datasource.AppendStatus(ctx, emailAddressID, model.StatusDisabled)
	return err
}

// EnableEmailAddress records that an address was put back into service.
func (m *Mailsync) EnableEmailAddress(ctx context.Context, emailAddressID string) error {
	_, err := m.datasource.AppendStatus(ctx, emailAddressID, model.StatusEnabled)
	return err
}
