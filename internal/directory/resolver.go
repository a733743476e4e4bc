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

package directory

import (
	"fmt"

	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/internal/mailerror"
)

// Resolver maps a mail domain to the organizational root under which a
// person's directory entry lives. It performs no network access.
type Resolver struct {
	oeffentlicheSchulenDomain string
	ersatzSchulenDomain       string
	oeffentlicheSchulenRoot   string
	ersatzSchulenRoot         string
}

func NewResolver(oeffentlicheDomain, oeffentlicheRoot, ersatzDomain, ersatzRoot string) *Resolver {
	return &Resolver{
		oeffentlicheSchulenDomain: oeffentlicheDomain,
		ersatzSchulenDomain:       ersatzDomain,
		oeffentlicheSchulenRoot:   oeffentlicheRoot,
		ersatzSchulenRoot:         ersatzRoot,
	}
}

// NewResolverFromConfig builds a resolver from the configured domain-to-root
// mappings.
func NewResolverFromConfig(cnf *config.Configuration) *Resolver {
	return NewResolver(
		cnf.Ldap.OeffentlicheSchulenDomain, cnf.Ldap.OeffentlicheSchulenRoot,
		cnf.Ldap.ErsatzSchulenDomain, cnf.Ldap.ErsatzSchulenRoot,
	)
}

// ResolveRoot returns the directory root for a mail domain. Any domain other
// than the two configured ones is an error.
func (r *Resolver) ResolveRoot(domain string) (string, error) {
	switch domain {
	case r.oeffentlicheSchulenDomain:
		return r.oeffentlicheSchulenRoot, nil
	case r.ersatzSchulenDomain:
		return r.ersatzSchulenRoot, nil
	default:
		return "", mailerror.New(mailerror.ErrLdapEmailDomain,
			fmt.Sprintf("no directory root configured for domain %s", domain), nil)
	}
}
