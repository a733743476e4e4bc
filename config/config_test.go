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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_FromFile(t *testing.T) {
	content := `{
		"project_name": "mailsync test",
		"data_source": {"dns": "postgres://localhost:5432/mailsync"},
		"retry": {"max_attempts": 5, "delay_ms": 200},
		"ldap": {
			"oeffentliche_schulen_domain": "schule-sh.de",
			"ersatz_schulen_domain": "ersatz-sh.de"
		}
	}`
	f, err := os.CreateTemp(t.TempDir(), "mailsync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, InitConfig(f.Name()))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "mailsync test", cnf.ProjectName)
	assert.Equal(t, "postgres://localhost:5432/mailsync", cnf.DataSource.Dns)
	assert.Equal(t, 5, cnf.Retry.MaxAttempts)
	assert.Equal(t, 200, cnf.Retry.DelayMs)
	assert.Equal(t, "schule-sh.de", cnf.Ldap.OeffentlicheSchulenDomain)
}

func TestInitConfig_AppliesDefaults(t *testing.T) {
	content := `{"data_source": {"dns": "postgres://localhost:5432/mailsync"}}`
	f, err := os.CreateTemp(t.TempDir(), "mailsync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, InitConfig(f.Name()))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Mailsync Server", cnf.ProjectName)
	assert.Equal(t, DEFAULT_RETRY_ATTEMPTS, cnf.Retry.MaxAttempts)
	assert.Equal(t, DEFAULT_RETRY_DELAY_MS, cnf.Retry.DelayMs)
	assert.Equal(t, DEFAULT_SWEEP_SCHEDULE, cnf.Sweep.Schedule)
	assert.Equal(t, DEFAULT_COUNT_SUFFIX_EXPR, cnf.AddressGeneration.CountSuffixExpr)
	assert.Equal(t, "oeffentlicheSchulen", cnf.Ldap.OeffentlicheSchulenRoot)
	assert.Equal(t, "ersatzSchulen", cnf.Ldap.ErsatzSchulenRoot)
}

func TestInitConfig_RequiresDataSource(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mailsync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = InitConfig(f.Name())
	assert.Error(t, err)
}

func TestInitConfig_EnvOverridesFile(t *testing.T) {
	content := `{"data_source": {"dns": "postgres://file:5432/mailsync"}, "retry": {"max_attempts": 2}}`
	f, err := os.CreateTemp(t.TempDir(), "mailsync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	t.Setenv("MAILSYNC_RETRY_MAX_ATTEMPTS", "9")

	require.NoError(t, InitConfig(f.Name()))
	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, 9, cnf.Retry.MaxAttempts)
	assert.Equal(t, "postgres://file:5432/mailsync", cnf.DataSource.Dns)
}

func TestMockConfig(t *testing.T) {
	MockConfig(&Configuration{})

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, 1, cnf.Retry.MaxAttempts)
	assert.Equal(t, DEFAULT_COUNT_SUFFIX_EXPR, cnf.AddressGeneration.CountSuffixExpr)
}
