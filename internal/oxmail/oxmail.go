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

// Package oxmail talks to the mail-hosting (Open-Xchange) admin API. Each
// method is a single round trip; retries are the caller's concern.
package oxmail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/internal/request"
)

// ErrMailboxExists signals that the mail-hosting system already holds a
// mailbox for this user outside normal provisioning. Callers inspect it with
// errors.Is to record EXISTS_ONLY_IN_OX instead of a generic failure.
var ErrMailboxExists = errors.New("mailbox already exists in ox")

// User describes the account to create or change in the mail-hosting system.
type User struct {
	Username     string   `json:"username"`
	GivenName    string   `json:"given_name"`
	SurName      string   `json:"sur_name"`
	DisplayName  string   `json:"display_name"`
	PrimaryEmail string   `json:"primary_email"`
	Aliases      []string `json:"aliases,omitempty"`
}

// CreatedUser is the mail-hosting system's answer to a creation request,
// carrying the opaque counter that links our address row to the mailbox.
type CreatedUser struct {
	UserID string `json:"user_id"`
}

// Client is the mail-hosting collaborator consumed by the synchronization
// engine. Implementations perform one round trip per call.
type Client interface {
	UserExists(ctx context.Context, username, oxUserID string) (bool, error)
	CreateUser(ctx context.Context, user User) (CreatedUser, error)
	ChangeUser(ctx context.Context, oxUserID string, user User) error
}

type httpClient struct {
	baseURL   string
	contextID string
	auth      string
	timeout   time.Duration
}

// NewClient builds an HTTP client for the configured mail-hosting endpoint.
func NewClient(cnf *config.Configuration) Client {
	timeout := time.Duration(cnf.OX.Timeout) * time.Second
	return &httpClient{
		baseURL:   cnf.OX.Url,
		contextID: cnf.OX.ContextID,
		auth:      request.BasicAuth(cnf.OX.Username, cnf.OX.Password),
		timeout:   timeout,
	}
}

// UserExists checks for an existing account, preferring the opaque counter
// over the username when one was assigned by an earlier creation.
func (c *httpClient) UserExists(ctx context.Context, username, oxUserID string) (bool, error) {
	query := url.Values{"context_id": {c.contextID}}
	if oxUserID != "" {
		query.Set("user_id", oxUserID)
	} else {
		query.Set("username", username)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/exists?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)

	var response struct {
		Exists bool `json:"exists"`
	}
	resp, err := request.Call(req, &response, c.timeout)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, errors.Errorf("ox existence check returned status %d", resp.StatusCode)
	}
	return response.Exists, nil
}

// CreateUser creates an account with the desired address as primary.
func (c *httpClient) CreateUser(ctx context.Context, user User) (CreatedUser, error) {
	payload, err := request.ToJsonReq(&user)
	if err != nil {
		return CreatedUser{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/users?context_id=%s", c.baseURL, url.QueryEscape(c.contextID)), payload)
	if err != nil {
		return CreatedUser{}, err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)

	var created CreatedUser
	resp, err := request.Call(req, &created, c.timeout)
	if err != nil {
		return CreatedUser{}, err
	}
	if resp.StatusCode == http.StatusConflict {
		return CreatedUser{}, errors.Wrapf(ErrMailboxExists, "username %s", user.Username)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CreatedUser{}, errors.Errorf("ox user creation returned status %d", resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"username":   user.Username,
		"ox_user_id": created.UserID,
	}).Info("created ox user")
	return created, nil
}

// ChangeUser points an existing account at a new primary address. Aliases are
// passed through in the order the caller accumulated them.
func (c *httpClient) ChangeUser(ctx context.Context, oxUserID string, user User) error {
	payload, err := request.ToJsonReq(&user)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/users/%s?context_id=%s", c.baseURL, url.PathEscape(oxUserID), url.QueryEscape(c.contextID)), payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)

	resp, err := request.Call(req, nil, c.timeout)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.Errorf("ox user change returned status %d", resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"ox_user_id":    oxUserID,
		"primary_email": user.PrimaryEmail,
		"alias_count":   len(user.Aliases),
	}).Info("changed ox user")
	return nil
}
