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
package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/dBildungsplattform/mailsync/model"
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Datasource{Conn: db}, mock
}

func emailAddressColumns() []string {
	return []string{
		"email_address_id", "address", "person_id", "priority",
		"ox_user_id", "external_id", "current_status",
		"marked_for_cron", "created_at", "updated_at",
	}
}

func TestCreateEmailAddress(t *testing.T) {
	ds, mock := newTestDatasource(t)

	address := model.EmailAddress{
		Address:    gofakeit.Email(),
		PersonID:   gofakeit.UUID(),
		ExternalID: gofakeit.UUID(),
		Priority:   0,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_addresses")).
		WithArgs(sqlmock.AnyArg(), address.Address, address.PersonID, address.Priority,
			address.OXUserID, address.ExternalID, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateEmailAddress(context.Background(), address)
	assert.NoError(t, err)
	assert.Contains(t, created.EmailAddressID, "eml_")
	assert.Equal(t, address.Address, created.Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmailAddressByID(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email_address_id, address, person_id, priority")).
		WithArgs("eml_1").
		WillReturnRows(sqlmock.NewRows(emailAddressColumns()).
			AddRow("eml_1", "maria.meier@schule-sh.de", "person-1", 0, "ox-42", "ext-1", "ACTIVE", nil, now, now))

	address, err := ds.GetEmailAddressByID(context.Background(), "eml_1")
	assert.NoError(t, err)
	assert.Equal(t, "maria.meier@schule-sh.de", address.Address)
	assert.Equal(t, model.StatusActive, address.CurrentStatus)
	assert.Nil(t, address.MarkedForCron)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmailAddressByID_NotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email_address_id, address, person_id, priority")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	address, err := ds.GetEmailAddressByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, address)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestGetEmailAddressesByPersonID_OrderedByPriority(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY priority ASC")).
		WithArgs("person-1").
		WillReturnRows(sqlmock.NewRows(emailAddressColumns()).
			AddRow("eml_a", "a@schule-sh.de", "person-1", 0, "ox-42", "ext-1", "ACTIVE", nil, now, now).
			AddRow("eml_b", "b@schule-sh.de", "person-1", 1, "", "", "DISABLED", nil, now, now))

	addresses, err := ds.GetEmailAddressesByPersonID(context.Background(), "person-1")
	assert.NoError(t, err)
	assert.Len(t, addresses, 2)
	assert.Equal(t, "eml_a", addresses[0].EmailAddressID)
	assert.Equal(t, model.StatusDisabled, addresses[1].CurrentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmailAddress(t *testing.T) {
	ds, mock := newTestDatasource(t)

	address := &model.EmailAddress{
		EmailAddressID: "eml_1",
		Address:        "maria.meier@schule-sh.de",
		Priority:       0,
		OXUserID:       "ox-42",
		ExternalID:     "ext-1",
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_addresses")).
		WithArgs("eml_1", address.Address, 0, "ox-42", "ext-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ds.UpdateEmailAddress(context.Background(), address)
	assert.NoError(t, err)
	assert.False(t, address.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePriorities_SingleTransaction(t *testing.T) {
	ds, mock := newTestDatasource(t)

	addresses := []model.EmailAddress{
		{EmailAddressID: "eml_a", Priority: 1},
		{EmailAddressID: "eml_b", Priority: 0},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET priority = $2")).
		WithArgs("eml_a", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET priority = $2")).
		WithArgs("eml_b", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ds.UpdatePriorities(context.Background(), addresses)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePriorities_RollsBackOnFailure(t *testing.T) {
	ds, mock := newTestDatasource(t)

	addresses := []model.EmailAddress{
		{EmailAddressID: "eml_a", Priority: 1},
		{EmailAddressID: "eml_b", Priority: 0},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET priority = $2")).
		WithArgs("eml_a", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET priority = $2")).
		WithArgs("eml_b", 0, sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := ds.UpdatePriorities(context.Background(), addresses)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePriorities_EmptyBatchIsNoop(t *testing.T) {
	ds, mock := newTestDatasource(t)

	err := ds.UpdatePriorities(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMarkedForCron_OnlyWhenUnset(t *testing.T) {
	ds, mock := newTestDatasource(t)
	cronDate := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("AND marked_for_cron IS NULL")).
		WithArgs("eml_1", cronDate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ds.SetMarkedForCron(context.Background(), "eml_1", cronDate)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmailAddress(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM email_addresses")).
		WithArgs("eml_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ds.DeleteEmailAddress(context.Background(), "eml_1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPersonsNeedingSweep(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT person_id")).
		WithArgs("DEACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"person_id"}).
			AddRow("person-1").
			AddRow("person-2"))

	personIDs, err := ds.ListPersonsNeedingSweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"person-1", "person-2"}, personIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
