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
	"time"

	"github.com/dBildungsplattform/mailsync/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	emailAddress // Interface for email address operations
	status       // Interface for status ledger operations
	domain       // Interface for service-provider domain lookups
}

// emailAddress defines methods for handling email addresses.
type emailAddress interface {
	CreateEmailAddress(ctx context.Context, address model.EmailAddress) (model.EmailAddress, error)  // Creates a new email address
	GetEmailAddressByID(ctx context.Context, id string) (*model.EmailAddress, error)                 // Retrieves an email address by ID
	GetEmailAddressesByPersonID(ctx context.Context, personID string) ([]model.EmailAddress, error)  // Retrieves all addresses owned by a person
	UpdateEmailAddress(ctx context.Context, address *model.EmailAddress) error                       // Updates an email address
	UpdatePriorities(ctx context.Context, addresses []model.EmailAddress) error                      // Reassigns priorities atomically
	SetMarkedForCron(ctx context.Context, id string, cronDate time.Time) error                       // Sets the cron mark only when unset
	DeleteEmailAddress(ctx context.Context, id string) error                                         // Deletes an email address
	ListPersonsNeedingSweep(ctx context.Context) ([]string, error)                                   // Lists persons with live demoted addresses
}

// status defines methods for handling the append-only status ledger.
type status interface {
	AppendStatus(ctx context.Context, emailAddressID string, s model.Status) (model.StatusRecord, error) // Appends an immutable status record
	GetCurrentStatus(ctx context.Context, emailAddressID string) (*model.StatusRecord, error)            // Retrieves the most recent status record
	GetStatusHistory(ctx context.Context, emailAddressID string) ([]model.StatusRecord, error)           // Retrieves the history, most-recent-first
}

// domain defines methods for resolving service providers to mail domains.
type domain interface {
	CreateDomainMapping(ctx context.Context, serviceProviderID, mailDomain string) error // Creates a service-provider domain mapping
	GetDomainByServiceProviderID(ctx context.Context, serviceProviderID string) (string, error)
}
