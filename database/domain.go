package database

import (
	"context"
)

// CreateDomainMapping inserts a service-provider to mail-domain mapping
func (d Datasource) CreateDomainMapping(ctx context.Context, serviceProviderID, mailDomain string) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO service_provider_domains (service_provider_id, domain)
		VALUES ($1, $2)
		ON CONFLICT (service_provider_id) DO UPDATE SET domain = EXCLUDED.domain
	`, serviceProviderID, mailDomain)
	return err
}

// GetDomainByServiceProviderID retrieves the mail domain configured for a
// service provider. Returns sql.ErrNoRows when none is configured.
func (d Datasource) GetDomainByServiceProviderID(ctx context.Context, serviceProviderID string) (string, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT domain
		FROM service_provider_domains
		WHERE service_provider_id = $1
	`, serviceProviderID)

	var mailDomain string
	err := row.Scan(&mailDomain)
	if err != nil {
		return "", err
	}
	return mailDomain, nil
}
