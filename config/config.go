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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_RETRY_ATTEMPTS    = 3
	DEFAULT_RETRY_DELAY_MS    = 1000
	DEFAULT_SWEEP_SCHEDULE    = "@every 1h"
	DEFAULT_COUNT_SUFFIX_EXPR = `^(.*?)(\d+)$`
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"MAILSYNC_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"MAILSYNC_REDIS_DNS"`
}

type RetryConfig struct {
	MaxAttempts int `json:"max_attempts" envconfig:"MAILSYNC_RETRY_MAX_ATTEMPTS"`
	DelayMs     int `json:"delay_ms" envconfig:"MAILSYNC_RETRY_DELAY_MS"`
}

// OXConfig points at the mail-hosting (Open-Xchange) admin API.
type OXConfig struct {
	Url       string `json:"url" envconfig:"MAILSYNC_OX_URL"`
	Username  string `json:"username" envconfig:"MAILSYNC_OX_USERNAME"`
	Password  string `json:"password" envconfig:"MAILSYNC_OX_PASSWORD"`
	ContextID string `json:"context_id" envconfig:"MAILSYNC_OX_CONTEXT_ID"`
	Timeout   int    `json:"timeout" envconfig:"MAILSYNC_OX_TIMEOUT"`
}

// LdapConfig describes the directory service and the two domain-to-root
// mappings used to place persons under the correct organizational branch.
type LdapConfig struct {
	Url                       string `json:"url" envconfig:"MAILSYNC_LDAP_URL"`
	BindDN                    string `json:"bind_dn" envconfig:"MAILSYNC_LDAP_BIND_DN"`
	BindPassword              string `json:"bind_password" envconfig:"MAILSYNC_LDAP_BIND_PASSWORD"`
	BaseDN                    string `json:"base_dn" envconfig:"MAILSYNC_LDAP_BASE_DN"`
	OeffentlicheSchulenDomain string `json:"oeffentliche_schulen_domain" envconfig:"MAILSYNC_LDAP_OEFFENTLICHE_SCHULEN_DOMAIN"`
	ErsatzSchulenDomain       string `json:"ersatz_schulen_domain" envconfig:"MAILSYNC_LDAP_ERSATZ_SCHULEN_DOMAIN"`
	OeffentlicheSchulenRoot   string `json:"oeffentliche_schulen_root" envconfig:"MAILSYNC_LDAP_OEFFENTLICHE_SCHULEN_ROOT"`
	ErsatzSchulenRoot         string `json:"ersatz_schulen_root" envconfig:"MAILSYNC_LDAP_ERSATZ_SCHULEN_ROOT"`
}

type GenerationHttpService struct {
	Url     string `json:"url"`
	Timeout int    `json:"timeout"`
	Headers struct {
		Authorization string `json:"Authorization"`
	} `json:"headers"`
}

// AddressGenerationConfig configures the external address generator service
// and the comparison policy deciding when two addresses are equal ignoring a
// numeric disambiguation suffix.
type AddressGenerationConfig struct {
	HttpService     GenerationHttpService `json:"http_service"`
	CountSuffixExpr string                `json:"count_suffix_expr" envconfig:"MAILSYNC_COUNT_SUFFIX_EXPR"`
}

type SweepConfig struct {
	Schedule string `json:"schedule" envconfig:"MAILSYNC_SWEEP_SCHEDULE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName       string                  `json:"project_name" envconfig:"MAILSYNC_PROJECT_NAME"`
	DataSource        DataSourceConfig        `json:"data_source"`
	Redis             RedisConfig             `json:"redis"`
	Retry             RetryConfig             `json:"retry"`
	OX                OXConfig                `json:"ox"`
	Ldap              LdapConfig              `json:"ldap"`
	AddressGeneration AddressGenerationConfig `json:"address_generation"`
	Sweep             SweepConfig             `json:"sweep"`
	Notification      Notification            `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("mailsync", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called mailsync.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Mailsync Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Retry.MaxAttempts < 1 {
		cnf.Retry.MaxAttempts = DEFAULT_RETRY_ATTEMPTS
		log.Printf("Warning: Retry attempts not specified. Setting default value: %d", DEFAULT_RETRY_ATTEMPTS)
	}
	if cnf.Retry.DelayMs < 1 {
		cnf.Retry.DelayMs = DEFAULT_RETRY_DELAY_MS
	}

	if cnf.Sweep.Schedule == "" {
		cnf.Sweep.Schedule = DEFAULT_SWEEP_SCHEDULE
	}

	if cnf.AddressGeneration.CountSuffixExpr == "" {
		cnf.AddressGeneration.CountSuffixExpr = DEFAULT_COUNT_SUFFIX_EXPR
	}

	if cnf.Ldap.OeffentlicheSchulenRoot == "" {
		cnf.Ldap.OeffentlicheSchulenRoot = "oeffentlicheSchulen"
	}
	if cnf.Ldap.ErsatzSchulenRoot == "" {
		cnf.Ldap.ErsatzSchulenRoot = "ersatzSchulen"
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyTestDefaults()
	ConfigStore.Store(mockConfig)
}

func (cnf *Configuration) applyTestDefaults() {
	if cnf.Retry.MaxAttempts < 1 {
		cnf.Retry.MaxAttempts = 1
	}
	if cnf.AddressGeneration.CountSuffixExpr == "" {
		cnf.AddressGeneration.CountSuffixExpr = DEFAULT_COUNT_SUFFIX_EXPR
	}
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
