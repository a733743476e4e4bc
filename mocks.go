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

	"github.com/dBildungsplattform/mailsync/internal/directory"
	"github.com/dBildungsplattform/mailsync/internal/oxmail"
)

// MockAddressGenerator is a function-override mock of the AddressGenerator
// collaborator.
type MockAddressGenerator struct {
	GenerateFunc func(ctx context.Context, firstName, lastName, domain string) (string, error)
	EqualFunc    func(a, b string) bool
}

func (m *MockAddressGenerator) GenerateAvailableAddress(ctx context.Context, firstName, lastName, domain string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, firstName, lastName, domain)
	}
	return "", nil
}

func (m *MockAddressGenerator) IsEqualIgnoreCount(a, b string) bool {
	if m.EqualFunc != nil {
		return m.EqualFunc(a, b)
	}
	return a == b
}

// MockOXClient is a function-override mock of the mail-hosting client.
type MockOXClient struct {
	UserExistsFunc func(ctx context.Context, username, oxUserID string) (bool, error)
	CreateUserFunc func(ctx context.Context, user oxmail.User) (oxmail.CreatedUser, error)
	ChangeUserFunc func(ctx context.Context, oxUserID string, user oxmail.User) error
}

func (m *MockOXClient) UserExists(ctx context.Context, username, oxUserID string) (bool, error) {
	if m.UserExistsFunc != nil {
		return m.UserExistsFunc(ctx, username, oxUserID)
	}
	return false, nil
}

func (m *MockOXClient) CreateUser(ctx context.Context, user oxmail.User) (oxmail.CreatedUser, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return oxmail.CreatedUser{}, nil
}

func (m *MockOXClient) ChangeUser(ctx context.Context, oxUserID string, user oxmail.User) error {
	if m.ChangeUserFunc != nil {
		return m.ChangeUserFunc(ctx, oxUserID, user)
	}
	return nil
}

// MockDirectoryClient is a function-override mock of the directory client.
type MockDirectoryClient struct {
	BindFunc         func(ctx context.Context) error
	PersonExistsFunc func(ctx context.Context, root, externalID string) (bool, error)
	CreatePersonFunc func(ctx context.Context, root string, entry directory.PersonEntry) error
	ModifyPersonFunc func(ctx context.Context, root string, entry directory.PersonEntry) error
	DeletePersonFunc func(ctx context.Context, root, externalID string) error
}

func (m *MockDirectoryClient) Bind(ctx context.Context) error {
	if m.BindFunc != nil {
		return m.BindFunc(ctx)
	}
	return nil
}

func (m *MockDirectoryClient) PersonExists(ctx context.Context, root, externalID string) (bool, error) {
	if m.PersonExistsFunc != nil {
		return m.PersonExistsFunc(ctx, root, externalID)
	}
	return false, nil
}

func (m *MockDirectoryClient) CreatePerson(ctx context.Context, root string, entry directory.PersonEntry) error {
	if m.CreatePersonFunc != nil {
		return m.CreatePersonFunc(ctx, root, entry)
	}
	return nil
}

func (m *MockDirectoryClient) ModifyPerson(ctx context.Context, root string, entry directory.PersonEntry) error {
	if m.ModifyPersonFunc != nil {
		return m.ModifyPersonFunc(ctx, root, entry)
	}
	return nil
}

func (m *MockDirectoryClient) DeletePerson(ctx context.Context, root, externalID string) error {
	if m.DeletePersonFunc != nil {
		return m.DeletePersonFunc(ctx, root, externalID)
	}
	return nil
}
