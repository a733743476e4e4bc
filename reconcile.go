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
	"fmt"

	"github.com/dBildungsplattform/mailsync/internal/mailerror"
	"github.com/dBildungsplattform/mailsync/model"
)

// ReconcilePriority moves one of a person's addresses to the desired priority
// and persists the resulting reassignments atomically. It returns only the
// addresses whose priority changed, target included.
func (m *Mailsync) ReconcilePriority(ctx context.Context, personID, targetID string, desiredPriority int) ([]model.EmailAddress, error) {
	addresses, err := m.datasource.GetEmailAddressesByPersonID(ctx, personID)
	if err != nil {
		return nil, err
	}

	changed, err := reconcilePriority(addresses, targetID, desiredPriority)
	if err != nil {
		return nil, err
	}

	if err := m.datasource.UpdatePriorities(ctx, changed); err != nil {
		return nil, err
	}
	return changed, nil
}

// reconcilePriority computes the minimal displacement for moving the target
// to the desired priority. Starting at the desired value, every priority held
// by another address in the original snapshot is pushed up by one; the chain
// stops at the first value that was free before the operation, so addresses
// beyond a gap keep their exact prior priority.
func reconcilePriority(addresses []model.EmailAddress, targetID string, desiredPriority int) ([]model.EmailAddress, error) {
	targetIdx := -1
	occupied := make(map[int]int, len(addresses)) // original priority -> index, target excluded
	for i, address := range addresses {
		if address.EmailAddressID == targetID {
			targetIdx = i
			continue
		}
		occupied[address.Priority] = i
	}
	if targetIdx == -1 {
		return nil, mailerror.New(mailerror.ErrNotFound,
			fmt.Sprintf("email address %s does not exist for this person", targetID), nil)
	}

	var changed []model.EmailAddress
	for k := desiredPriority; ; k++ {
		idx, held := occupied[k]
		if !held {
			break
		}
		displaced := addresses[idx]
		displaced.Priority = k + 1
		changed = append(changed, displaced)
	}

	target := addresses[targetIdx]
	target.Priority = desiredPriority
	changed = append(changed, target)
	return changed, nil
}
