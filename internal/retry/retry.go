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

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/config"
)

// ExecuteWithRetry invokes operation up to maxAttempts times, waiting delay
// between attempts. Every failed attempt that is not the last one is logged
// with its attempt number and cause. The last failure is returned unchanged;
// a success on any attempt is returned immediately.
//
// A maxAttempts of 0 falls back to the configured default.
func ExecuteWithRetry[T any](ctx context.Context, operation func() (T, error), maxAttempts uint64, delay time.Duration) (T, error) {
	if maxAttempts == 0 {
		maxAttempts = defaultAttempts()
	}

	attempt := 0
	notify := func(err error, _ time.Duration) {
		attempt++
		logrus.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        err.Error(),
		}).Warn("operation attempt failed, retrying")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), maxAttempts-1),
		ctx,
	)
	return backoff.RetryNotifyWithData(operation, policy, notify)
}

func defaultAttempts() uint64 {
	cnf, err := config.Fetch()
	if err != nil || cnf.Retry.MaxAttempts < 1 {
		return 1
	}
	return uint64(cnf.Retry.MaxAttempts)
}
