package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/dBildungsplattform/mailsync/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error: %v", err)
		return nil, err
	}
	err = createEmailAddressTable(db)
	if err != nil {
		return nil, err
	}
	err = createEmailStatusTable(db)
	if err != nil {
		return nil, err
	}
	err = createDomainTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createEmailAddressTable creates a PostgreSQL table for the EmailAddress struct.
// The partial unique index enforces at most one PENDING address per person at
// the storage boundary, so concurrent provisioning requests for the same
// person cannot both persist PENDING.
func createEmailAddressTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS email_addresses (
			id SERIAL PRIMARY KEY,
			email_address_id TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL UNIQUE,
			person_id TEXT NOT NULL,
			priority INT NOT NULL DEFAULT 0,
			ox_user_id TEXT,
			external_id TEXT,
			current_status TEXT,
			marked_for_cron TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_email_addresses_person_id ON email_addresses (person_id);
		CREATE UNIQUE INDEX IF NOT EXISTS one_pending_per_person ON email_addresses (person_id) WHERE current_status = 'PENDING';
	`)
	if err != nil {
		log.Println(err)
	}
	return err
}

// createEmailStatusTable creates a PostgreSQL table for the StatusRecord struct.
// Rows are append-only; nothing ever updates or deletes them.
func createEmailStatusTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS email_statuses (
			id SERIAL PRIMARY KEY,
			status_id TEXT NOT NULL UNIQUE,
			email_address_id TEXT NOT NULL REFERENCES email_addresses(email_address_id),
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_email_statuses_address ON email_statuses (email_address_id, created_at DESC);
	`)
	if err != nil {
		log.Println(err)
	}
	return err
}

// createDomainTable creates a PostgreSQL table mapping service providers to
// their mail domain.
func createDomainTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS service_provider_domains (
			id SERIAL PRIMARY KEY,
			service_provider_id TEXT NOT NULL UNIQUE,
			domain TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Println(err)
	}
	return err
}
