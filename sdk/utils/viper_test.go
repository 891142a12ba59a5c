// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

const testIni = `current_environment = staging

[dev]
cm_host = https://dev.example.org/rest
cm_api_token = dev-token

[staging]
cm_host = https://staging.example.org/rest
cm_api_token = staging-token
cm_poll_interval = 2s
aws_region = eu-central-1
`

func setupIni(t *testing.T, content string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), IniName)
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	t.Setenv(IniPathEnv, path)
	for _, env := range []string{"CM_HOST", "CM_API_TOKEN", "CM_ACCESS_TOKEN", "CM_POLL_INTERVAL", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "AWS_ENDPOINT_URL", "CM_CHUNK_SIZE"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	return path
}

func TestGetIniPathOverride(t *testing.T) {
	path := setupIni(t, "")
	assert.Equal(t, path, GetIniPath())
}

func TestRegisterIniCfgCurrentEnvironment(t *testing.T) {
	setupIni(t, testIni)

	require.NoError(t, RegisterIniCfgWithViper())
	assert.Equal(t, "staging", viper.GetString(CurrentEnvironment))

	cfg := BuildConfig()
	assert.Equal(t, "https://staging.example.org/rest", cfg.Core.BaseURL)
	assert.Equal(t, "staging-token", cfg.Core.APIToken)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "2s", viper.GetDuration(CmPollInterval).String())
	// defaults fill what the section leaves out
	assert.Equal(t, DefaultChunkSize, viper.GetInt64(CmChunkSize))
}

func TestRegisterIniCfgExplicitEnvAndEnvOverride(t *testing.T) {
	setupIni(t, testIni)
	t.Setenv("CM_API_TOKEN", "from-env")

	require.NoError(t, RegisterIniCfgWithViper("dev"))
	assert.Equal(t, "dev", viper.GetString(CurrentEnvironment))
	cfg := BuildConfig()
	assert.Equal(t, "https://dev.example.org/rest", cfg.Core.BaseURL)
	assert.Equal(t, "from-env", cfg.Core.APIToken)
}

func TestRegisterIniCfgWithoutFile(t *testing.T) {
	setupIni(t, "")
	t.Setenv("CM_API_TOKEN", "only-env")

	require.NoError(t, RegisterIniCfgWithViper("ci"))
	assert.Equal(t, "ci", viper.GetString(CurrentEnvironment))

	cfg := BuildConfig()
	assert.Equal(t, "only-env", cfg.Core.APIToken)
	assert.Equal(t, "https://secure.clevermaps.io/rest", cfg.Core.BaseURL)
	assert.False(t, cfg.S3.Enabled())
}

func TestWriteIniFromStruct(t *testing.T) {
	path := setupIni(t, testIni)
	require.NoError(t, RegisterIniCfgWithViper("staging"))

	viper.Set(CmAPIToken, "new-token")
	viper.Set(CmAccessToken, "not-persisted")
	require.NoError(t, WriteIniFromStruct(path, "prod"))

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Section(ini.DefaultSection).Key(CurrentEnvironment).String())

	prod := cfg.Section("prod")
	assert.Equal(t, "new-token", prod.Key(CmAPIToken).String())
	assert.Equal(t, "https://staging.example.org/rest", prod.Key(CmHost).String())
	assert.False(t, prod.HasKey(CmAccessToken))
	assert.NotEmpty(t, prod.Key(UpdatedEnvKey).String())

	// other sections are preserved
	assert.Equal(t, "staging-token", cfg.Section("staging").Key(CmAPIToken).String())
}
