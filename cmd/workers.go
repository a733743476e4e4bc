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

package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	redis_db "github.com/dBildungsplattform/mailsync/internal/redis-db"
)

const taskEmailSweep = "cron:email-sweep"

// processEmailSweep demotes every non-primary address that is still live and
// schedules it for deferred deletion. The sweep only touches the local ledger
// and cron marks, never the external systems.
func (b *mailsyncInstance) processEmailSweep(ctx context.Context, _ *asynq.Task) error {
	cronDate := time.Now()
	if err := b.mailsync.SweepAllPersons(ctx, cronDate); err != nil {
		logrus.WithError(err).Error("email sweep failed")
		return err
	}
	log.Println(" [*] Email Sweep Completed")
	return nil
}

// workerCommands starts the background worker together with the scheduler
// that enqueues the periodic sweep.
func workerCommands(b *mailsyncInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start mailsync workers",
		Run: func(cmd *cobra.Command, args []string) {
			redisOption, err := redis_db.ParseRedisURL(b.cnf.Redis.Dns)
			if err != nil {
				log.Fatalf("Error parsing Redis URL: %v", err)
			}
			queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}

			scheduler := asynq.NewScheduler(queueOptions, nil)
			_, err = scheduler.Register(b.cnf.Sweep.Schedule, asynq.NewTask(taskEmailSweep, nil))
			if err != nil {
				log.Fatalf("Error registering sweep schedule: %v", err)
			}
			go func() {
				if err := scheduler.Run(); err != nil {
					log.Fatalf("Error running scheduler: %v", err)
				}
			}()

			srv := asynq.NewServer(queueOptions, asynq.Config{
				Concurrency: 1,
			})

			mux := asynq.NewServeMux()
			mux.HandleFunc(taskEmailSweep, b.processEmailSweep)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("Error running worker server: %v", err)
			}
		},
	}
	return cmd
}
