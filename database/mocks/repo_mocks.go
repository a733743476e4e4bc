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
package mocks

import (
	"context"
	"time"

	"github.com/dBildungsplattform/mailsync/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Email address methods

func (m *MockDataSource) CreateEmailAddress(ctx context.Context, address model.EmailAddress) (model.EmailAddress, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(model.EmailAddress), args.Error(1)
}

func (m *MockDataSource) GetEmailAddressByID(ctx context.Context, id string) (*model.EmailAddress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailAddress), args.Error(1)
}

func (m *MockDataSource) GetEmailAddressesByPersonID(ctx context.Context, personID string) ([]model.EmailAddress, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EmailAddress), args.Error(1)
}

func (m *MockDataSource) UpdateEmailAddress(ctx context.Context, address *model.EmailAddress) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockDataSource) UpdatePriorities(ctx context.Context, addresses []model.EmailAddress) error {
	args := m.Called(ctx, addresses)
	return args.Error(0)
}

func (m *MockDataSource) SetMarkedForCron(ctx context.Context, id string, cronDate time.Time) error {
	args := m.Called(ctx, id, cronDate)
	return args.Error(0)
}

func (m *MockDataSource) DeleteEmailAddress(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDataSource) ListPersonsNeedingSweep(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Status ledger methods

func (m *MockDataSource) AppendStatus(ctx context.Context, emailAddressID string, s model.Status) (model.StatusRecord, error) {
	args := m.Called(ctx, emailAddressID, s)
	return args.Get(0).(model.StatusRecord), args.Error(1)
}

func (m *MockDataSource) GetCurrentStatus(ctx context.Context, emailAddressID string) (*model.StatusRecord, error) {
	args := m.Called(ctx, emailAddressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusRecord), args.Error(1)
}

func (m *MockDataSource) GetStatusHistory(ctx context.Context, emailAddressID string) ([]model.StatusRecord, error) {
	args := m.Called(ctx, emailAddressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusRecord), args.Error(1)
}

// Domain methods

func (m *MockDataSource) CreateDomainMapping(ctx context.Context, serviceProviderID, mailDomain string) error {
	args := m.Called(ctx, serviceProviderID, mailDomain)
	return args.Error(0)
}

func (m *MockDataSource) GetDomainByServiceProviderID(ctx context.Context, serviceProviderID string) (string, error) {
	args := m.Called(ctx, serviceProviderID)
	return args.String(0), args.Error(1)
}
