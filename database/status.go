package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/dBildungsplattform/mailsync/internal/mailerror"
	"github.com/dBildungsplattform/mailsync/model"
)

// AppendStatus inserts an immutable status record and moves the denormalized
// current_status column in the same transaction. The partial unique index on
// email_addresses rejects a second concurrent PENDING for the same person
// here, which is surfaced as a conflict.
func (d Datasource) AppendStatus(ctx context.Context, emailAddressID string, s model.Status) (model.StatusRecord, error) {
	record := model.StatusRecord{
		StatusID:       model.GenerateUUIDWithSuffix("sts"),
		EmailAddressID: emailAddressID,
		Status:         s,
		CreatedAt:      time.Now(),
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return record, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_statuses (status_id, email_address_id, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, record.StatusID, record.EmailAddressID, string(record.Status), record.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return record, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE email_addresses
		SET current_status = $2, updated_at = $3
		WHERE email_address_id = $1
	`, record.EmailAddressID, string(record.Status), record.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return record, mailerror.New(mailerror.ErrConflict, "another update is already pending for this person", err)
		}
		return record, err
	}

	return record, tx.Commit()
}

// GetCurrentStatus retrieves the most recent status record for an address.
// A brand-new address without history yields (nil, nil).
func (d Datasource) GetCurrentStatus(ctx context.Context, emailAddressID string) (*model.StatusRecord, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT status_id, email_address_id, status, created_at
		FROM email_statuses
		WHERE email_address_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, emailAddressID)

	record := &model.StatusRecord{}
	err := row.Scan(&record.StatusID, &record.EmailAddressID, &record.Status, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetStatusHistory retrieves the full status history of an address ordered
// most-recent-first.
func (d Datasource) GetStatusHistory(ctx context.Context, emailAddressID string) ([]model.StatusRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT status_id, email_address_id, status, created_at
		FROM email_statuses
		WHERE email_address_id = $1
		ORDER BY created_at DESC, id DESC
	`, emailAddressID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.StatusRecord
	for rows.Next() {
		record := model.StatusRecord{}
		err = rows.Scan(&record.StatusID, &record.EmailAddressID, &record.Status, &record.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
