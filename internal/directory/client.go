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

// Package directory maintains person entries in the LDAP directory service.
package directory

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/config"
)

// PersonEntry is the directory representation of a person, keyed by the
// external correlation id under a resolved organizational root.
type PersonEntry struct {
	ExternalID   string
	FirstName    string
	LastName     string
	DisplayName  string
	EmailAddress string
	Kennungen    []string
}

// Client is the directory collaborator consumed by the synchronization
// engine. Each method is a single round trip.
type Client interface {
	Bind(ctx context.Context) error
	PersonExists(ctx context.Context, root, externalID string) (bool, error)
	CreatePerson(ctx context.Context, root string, entry PersonEntry) error
	ModifyPerson(ctx context.Context, root string, entry PersonEntry) error
	DeletePerson(ctx context.Context, root, externalID string) error
}

type ldapClient struct {
	url          string
	bindDN       string
	bindPassword string
	baseDN       string
}

// NewClient builds a directory client for the configured LDAP endpoint.
func NewClient(cnf *config.Configuration) Client {
	return &ldapClient{
		url:          cnf.Ldap.Url,
		bindDN:       cnf.Ldap.BindDN,
		bindPassword: cnf.Ldap.BindPassword,
		baseDN:       cnf.Ldap.BaseDN,
	}
}

// connect dials and binds a fresh connection. Connections are per call; the
// directory service closes idle ones aggressively.
func (c *ldapClient) connect() (*ldap.Conn, error) {
	conn, err := ldap.DialURL(c.url)
	if err != nil {
		return nil, err
	}
	if err := conn.Bind(c.bindDN, c.bindPassword); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *ldapClient) Bind(_ context.Context) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

func (c *ldapClient) rootDN(root string) string {
	return fmt.Sprintf("ou=%s,%s", root, c.baseDN)
}

func (c *ldapClient) personDN(root, externalID string) string {
	return fmt.Sprintf("uid=%s,%s", externalID, c.rootDN(root))
}

func (c *ldapClient) PersonExists(_ context.Context, root, externalID string) (bool, error) {
	conn, err := c.connect()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	searchRequest := ldap.NewSearchRequest(
		c.rootDN(root),
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(externalID)),
		[]string{"dn"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return false, nil
		}
		return false, err
	}
	return len(result.Entries) > 0, nil
}

func (c *ldapClient) CreatePerson(_ context.Context, root string, entry PersonEntry) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	addRequest := ldap.NewAddRequest(c.personDN(root, entry.ExternalID), nil)
	addRequest.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "inetOrgPerson"})
	addRequest.Attribute("uid", []string{entry.ExternalID})
	addRequest.Attribute("givenName", []string{entry.FirstName})
	addRequest.Attribute("sn", []string{entry.LastName})
	addRequest.Attribute("cn", []string{entry.DisplayName})
	addRequest.Attribute("mail", []string{entry.EmailAddress})
	if len(entry.Kennungen) > 0 {
		addRequest.Attribute("memberUid", entry.Kennungen)
	}

	if err := conn.Add(addRequest); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"external_id": entry.ExternalID,
		"root":        root,
	}).Info("created directory person entry")
	return nil
}

func (c *ldapClient) ModifyPerson(_ context.Context, root string, entry PersonEntry) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	modifyRequest := ldap.NewModifyRequest(c.personDN(root, entry.ExternalID), nil)
	modifyRequest.Replace("givenName", []string{entry.FirstName})
	modifyRequest.Replace("sn", []string{entry.LastName})
	modifyRequest.Replace("cn", []string{entry.DisplayName})
	modifyRequest.Replace("mail", []string{entry.EmailAddress})
	if len(entry.Kennungen) > 0 {
		modifyRequest.Replace("memberUid", entry.Kennungen)
	}

	if err := conn.Modify(modifyRequest); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"external_id": entry.ExternalID,
		"root":        root,
	}).Info("modified directory person entry")
	return nil
}

func (c *ldapClient) DeletePerson(_ context.Context, root, externalID string) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Del(ldap.NewDelRequest(c.personDN(root, externalID), nil))
}
