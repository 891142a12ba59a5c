// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package config

// DefaultBaseURL is the public REST root of the platform.
const DefaultBaseURL = "https://secure.clevermaps.io/rest"

// Config is everything the SDK services need. Loading it from files or the
// environment is left to the caller (see utils.BuildConfig).
type Config struct {
	Core CoreConfig
	S3   S3Config
}

type CoreConfig struct {
	// BaseURL defaults to DefaultBaseURL when empty.
	BaseURL string
	// APIToken is the long-lived token exchanged for a bearer token.
	APIToken string
	// AccessToken skips the exchange when already known.
	AccessToken string
}

// S3Config is only required for s3:// inputs and outputs.
type S3Config struct {
	AccessKey   string
	SecretKey   string
	AccessToken string
	Region      string
	EndpointURL string
}

func (c CoreConfig) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// Enabled reports whether enough S3 settings are present to build a client.
func (c S3Config) Enabled() bool {
	return c.Region != "" || c.EndpointURL != "" || c.AccessKey != ""
}
