package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/dBildungsplattform/mailsync/model"
)

// CreateEmailAddress inserts a new EmailAddress into the database
func (d Datasource) CreateEmailAddress(ctx context.Context, address model.EmailAddress) (model.EmailAddress, error) {
	address.EmailAddressID = model.GenerateUUIDWithSuffix("eml")
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO email_addresses (email_address_id, address, person_id, priority, ox_user_id, external_id, current_status, marked_for_cron, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, address.EmailAddressID, address.Address, address.PersonID, address.Priority, address.OXUserID, address.ExternalID, nullableStatus(address.CurrentStatus), address.MarkedForCron, address.CreatedAt, address.UpdatedAt)

	return address, err
}

// GetEmailAddressByID retrieves an email address from the database by ID
func (d Datasource) GetEmailAddressByID(ctx context.Context, id string) (*model.EmailAddress, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT email_address_id, address, person_id, priority, COALESCE(ox_user_id, ''), COALESCE(external_id, ''), COALESCE(current_status, ''), marked_for_cron, created_at, updated_at
		FROM email_addresses
		WHERE email_address_id = $1
	`, id)

	return scanEmailAddress(row)
}

// GetEmailAddressesByPersonID retrieves every address owned by a person,
// primary first. This is the snapshot read establishing the state one
// provisioning run operates on.
func (d Datasource) GetEmailAddressesByPersonID(ctx context.Context, personID string) ([]model.EmailAddress, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT email_address_id, address, person_id, priority, COALESCE(ox_user_id, ''), COALESCE(external_id, ''), COALESCE(current_status, ''), marked_for_cron, created_at, updated_at
		FROM email_addresses
		WHERE person_id = $1
		ORDER BY priority ASC
	`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []model.EmailAddress
	for rows.Next() {
		address := model.EmailAddress{}
		err = rows.Scan(
			&address.EmailAddressID, &address.Address, &address.PersonID, &address.Priority,
			&address.OXUserID, &address.ExternalID, &address.CurrentStatus,
			&address.MarkedForCron, &address.CreatedAt, &address.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}

	return addresses, rows.Err()
}

// UpdateEmailAddress updates an email address in the database
func (d Datasource) UpdateEmailAddress(ctx context.Context, address *model.EmailAddress) error {
	address.UpdatedAt = time.Now()
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE email_addresses
		SET address = $2, priority = $3, ox_user_id = $4, external_id = $5, marked_for_cron = $6, updated_at = $7
		WHERE email_address_id = $1
	`, address.EmailAddressID, address.Address, address.Priority, address.OXUserID, address.ExternalID, address.MarkedForCron, address.UpdatedAt)

	return err
}

// UpdatePriorities persists a batch of priority reassignments in a single
// transaction, so a displacement run either lands completely or not at all.
func (d Datasource) UpdatePriorities(ctx context.Context, addresses []model.EmailAddress) error {
	if len(addresses) == 0 {
		return nil
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, address := range addresses {
		_, err = tx.ExecContext(ctx, `
			UPDATE email_addresses
			SET priority = $2, updated_at = $3
			WHERE email_address_id = $1
		`, address.EmailAddressID, address.Priority, now)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// SetMarkedForCron schedules an address for deferred deletion. The mark is
// only written when it is not already set.
func (d Datasource) SetMarkedForCron(ctx context.Context, id string, cronDate time.Time) error {
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE email_addresses
		SET marked_for_cron = $2, updated_at = NOW()
		WHERE email_address_id = $1 AND marked_for_cron IS NULL
	`, id, cronDate)
	return err
}

// DeleteEmailAddress deletes an email address from the database by ID
func (d Datasource) DeleteEmailAddress(ctx context.Context, id string) error {
	_, err := d.Conn.ExecContext(ctx, `
		DELETE FROM email_addresses
		WHERE email_address_id = $1
	`, id)
	return err
}

// ListPersonsNeedingSweep returns the persons that own at least one demoted
// address whose current status is not yet DEACTIVE.
func (d Datasource) ListPersonsNeedingSweep(ctx context.Context) ([]string, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT DISTINCT person_id
		FROM email_addresses
		WHERE priority >= 1 AND (current_status IS NULL OR current_status != $1)
	`, string(model.StatusDeactive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var personIDs []string
	for rows.Next() {
		var personID string
		if err := rows.Scan(&personID); err != nil {
			return nil, err
		}
		personIDs = append(personIDs, personID)
	}

	return personIDs, rows.Err()
}

func scanEmailAddress(row *sql.Row) (*model.EmailAddress, error) {
	address := &model.EmailAddress{}
	err := row.Scan(
		&address.EmailAddressID, &address.Address, &address.PersonID, &address.Priority,
		&address.OXUserID, &address.ExternalID, &address.CurrentStatus,
		&address.MarkedForCron, &address.CreatedAt, &address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return address, nil
}

func nullableStatus(s model.Status) interface{} {
	if s == "" {
		return nil
	}
	return string(s)
}
