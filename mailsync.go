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
	"time"

	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/database"
	"github.com/dBildungsplattform/mailsync/internal/directory"
	"github.com/dBildungsplattform/mailsync/internal/oxmail"
)

// Mailsync represents the main struct for the email identity synchronization
// engine. It drives the mail-hosting and directory systems from the local
// address state.
type Mailsync struct {
	datasource    database.IDataSource
	generator     AddressGenerator
	ox            oxmail.Client
	directory     directory.Client
	resolver      *directory.Resolver
	retryAttempts uint64
	retryDelay    time.Duration
}

// NewMailsync initializes a new instance of Mailsync with the provided
// database datasource. It fetches the configuration and builds the external
// collaborators from it. The retry attempt count is read once here and used
// for every retry-wrapped external call.
func NewMailsync(db database.IDataSource) (*Mailsync, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	newMailsync := &Mailsync{
		datasource:    db,
		generator:     NewAddressGenerator(configuration),
		ox:            oxmail.NewClient(configuration),
		directory:     directory.NewClient(configuration),
		resolver:      directory.NewResolverFromConfig(configuration),
		retryAttempts: uint64(configuration.Retry.MaxAttempts),
		retryDelay:    time.Duration(configuration.Retry.DelayMs) * time.Millisecond,
	}
	return newMailsync, nil
}
