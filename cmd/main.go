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
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	mailsync "github.com/dBildungsplattform/mailsync"
	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/database"
)

// Mailsync represents the CLI application, encapsulating the root Cobra command.
type Mailsync struct {
	cmd *cobra.Command // Root command for the CLI application
}

// mailsyncInstance holds the engine instance and its configuration.
type mailsyncInstance struct {
	mailsync *mailsync.Mailsync    // Engine object initialized from configuration
	cnf      *config.Configuration // Configuration object holding runtime settings
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec) // Log the recovered panic
		os.Exit(1)        // Exit the program with an error status
	}
}

// preRun sets up the configuration and initializes the engine before running
// any command.
func preRun(app *mailsyncInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("mailsync.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		db, err := database.NewDataSource(cnf)
		if err != nil {
			log.Fatalf("error getting datasource: %v", err)
		}

		newMailsync, err := mailsync.NewMailsync(db)
		if err != nil {
			log.Fatalf("error creating mailsync: %v", err)
		}

		app.mailsync = newMailsync
		app.cnf = cnf
		return nil
	}
}

// NewCLI initializes the CLI with the root command and its subcommands.
func NewCLI() *Mailsync {
	var app mailsyncInstance

	rootCmd := &cobra.Command{
		Use:               "mailsync",
		Short:             "email identity synchronization engine",
		PersistentPreRunE: preRun(&app),
	}

	rootCmd.AddCommand(workerCommands(&app))
	rootCmd.AddCommand(migrateCommands())

	return &Mailsync{cmd: rootCmd}
}

// executeCLI runs the root command and handles any execution errors.
func (m *Mailsync) executeCLI() {
	if err := m.cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
