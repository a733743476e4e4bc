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
package model

import (
	"sort"
	"time"
)

// Status represents one value in an email address's status history.
type Status string

const (
	StatusRequested      Status = "REQUESTED"
	StatusPending        Status = "PENDING"
	StatusActive         Status = "ACTIVE"
	StatusFailed         Status = "FAILED"
	StatusSuspended      Status = "SUSPENDED"
	StatusDeactive       Status = "DEACTIVE"
	StatusDisabled       Status = "DISABLED"
	StatusEnabled        Status = "ENABLED"
	StatusExistsOnlyInOX Status = "EXISTS_ONLY_IN_OX"
)

// PrimaryPriority is the priority value carried by the single address a person
// currently advertises. All other values denote demoted or historical addresses.
const PrimaryPriority = 0

// EmailAddress is one candidate mail address owned by exactly one person.
// Priorities are not required to be dense; gaps are preserved unless an
// operation explicitly closes them.
type EmailAddress struct {
	EmailAddressID string     `json:"email_address_id"`
	Address        string     `json:"address"`
	PersonID       string     `json:"person_id"`
	Priority       int        `json:"priority"`
	OXUserID       string     `json:"ox_user_id"`
	ExternalID     string     `json:"external_id"`
	CurrentStatus  Status     `json:"current_status"`
	MarkedForCron  *time.Time `json:"marked_for_cron"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsPrimary reports whether this address is the one currently advertised for
// its person.
func (e *EmailAddress) IsPrimary() bool {
	return e.Priority == PrimaryPriority
}

// StatusRecord is one immutable entry in an address's status history.
type StatusRecord struct {
	StatusID       string    `json:"status_id"`
	EmailAddressID string    `json:"email_address_id"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// SortStatusesDesc orders status records most-recent-first in place.
func SortStatusesDesc(records []StatusRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// ProvisioningParams carries everything a provisioning request knows about the
// person whose email identity is being set.
type ProvisioningParams struct {
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	PersonID          string   `json:"person_id"`
	ExternalID        string   `json:"external_id"`
	Kennungen         []string `json:"kennungen"`
	RequestedByID     string   `json:"requested_by_id"`
	ServiceProviderID string   `json:"service_provider_id"`
	LoginName         string   `json:"login_name"`
}
