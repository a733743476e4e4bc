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
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/dBildungsplattform/mailsync/internal/mailerror"
	"github.com/dBildungsplattform/mailsync/model"
)

func TestAppendStatus(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_statuses")).
		WithArgs(sqlmock.AnyArg(), "eml_1", "ACTIVE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET current_status = $2")).
		WithArgs("eml_1", "ACTIVE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, err := ds.AppendStatus(context.Background(), "eml_1", model.StatusActive)
	assert.NoError(t, err)
	assert.Contains(t, record.StatusID, "sts_")
	assert.Equal(t, "eml_1", record.EmailAddressID)
	assert.Equal(t, model.StatusActive, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendStatus_SecondPendingIsConflict(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_statuses")).
		WithArgs(sqlmock.AnyArg(), "eml_1", "PENDING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET current_status = $2")).
		WithArgs("eml_1", "PENDING", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "one_pending_per_person"})
	mock.ExpectRollback()

	_, err := ds.AppendStatus(context.Background(), "eml_1", model.StatusPending)
	assert.Error(t, err)
	assert.True(t, mailerror.HasCode(err, mailerror.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCurrentStatus(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 1")).
		WithArgs("eml_1").
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "email_address_id", "status", "created_at"}).
			AddRow("sts_1", "eml_1", "PENDING", now))

	record, err := ds.GetCurrentStatus(context.Background(), "eml_1")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCurrentStatus_NoHistory(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 1")).
		WithArgs("eml_new").
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "email_address_id", "status", "created_at"}))

	record, err := ds.GetCurrentStatus(context.Background(), "eml_new")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestGetStatusHistory_MostRecentFirst(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs("eml_1").
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "email_address_id", "status", "created_at"}).
			AddRow("sts_3", "eml_1", "ACTIVE", now).
			AddRow("sts_2", "eml_1", "PENDING", now.Add(-time.Minute)).
			AddRow("sts_1", "eml_1", "REQUESTED", now.Add(-2*time.Minute)))

	records, err := ds.GetStatusHistory(context.Background(), "eml_1")
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, model.StatusActive, records[0].Status)
	assert.Equal(t, model.StatusRequested, records[2].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
