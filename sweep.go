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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/model"
)

// EnsureSingleLiveAddress demotes every address of a person except the
// primary one and schedules the demoted ones for deferred deletion. The check
// runs against the current status, so calling it twice appends at most one
// DEACTIVE record per address; an already-set cron mark is never changed. The
// priority-0 address is never touched, and no external system is called.
func (m *Mailsync) EnsureSingleLiveAddress(ctx context.Context, personID string, cronDate time.Time) error {
	addresses, err := m.datasource.GetEmailAddressesByPersonID(ctx, personID)
	if err != nil {
		return err
	}

	demoted := 0
	for _, address := range addresses {
		if address.Priority < 1 {
			continue
		}

		if address.CurrentStatus != model.StatusDeactive {
			if _, err := m.datasource.AppendStatus(ctx, address.EmailAddressID, model.StatusDeactive); err != nil {
				return err
			}
			demoted++
		}

		if address.MarkedForCron == nil {
			if err := m.datasource.SetMarkedForCron(ctx, address.EmailAddressID, cronDate); err != nil {
				return err
			}
		}
	}

	if demoted > 0 {
		logrus.WithFields(logrus.Fields{
			"person_id": personID,
			"demoted":   demoted,
		}).Info("demoted non-primary email addresses")
	}
	return nil
}

// SweepAllPersons runs the demotion policy for every person that still owns a
// live demoted address.
func (m *Mailsync) SweepAllPersons(ctx context.Context, cronDate time.Time) error {
	personIDs, err := m.datasource.ListPersonsNeedingSweep(ctx)
	if err != nil {
		return err
	}

	for _, personID := range personIDs {
		if err := m.EnsureSingleLiveAddress(ctx, personID, cronDate); err != nil {
			logrus.WithFields(logrus.Fields{
				"person_id": personID,
			}).WithError(err).Error("sweep failed for person")
			return err
		}
	}
	return nil
}
