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
	"log"

	"github.com/spf13/cobra"

	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/database"
)

// migrateCommands creates the command that applies the database schema.
func migrateCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "create or update the mailsync schema",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Fatalf("Error fetching config: %v", err)
			}
			_, err = database.ConnectDB(cnf.DataSource.Dns)
			if err != nil {
				log.Fatalf("Error migrating schema: %v", err)
			}
			log.Println("schema up to date")
		},
	}
	return cmd
}
