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

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCreateDomainMapping_Upserts(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (service_provider_id) DO UPDATE")).
		WithArgs("sp-1", "schule-sh.de").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := ds.CreateDomainMapping(context.Background(), "sp-1", "schule-sh.de")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDomainByServiceProviderID(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM service_provider_domains")).
		WithArgs("sp-1").
		WillReturnRows(sqlmock.NewRows([]string{"domain"}).AddRow("schule-sh.de"))

	mailDomain, err := ds.GetDomainByServiceProviderID(context.Background(), "sp-1")
	assert.NoError(t, err)
	assert.Equal(t, "schule-sh.de", mailDomain)
}

func TestGetDomainByServiceProviderID_NotConfigured(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM service_provider_domains")).
		WithArgs("sp-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"domain"}))

	_, err := ds.GetDomainByServiceProviderID(context.Background(), "sp-unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
