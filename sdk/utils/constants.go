// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	IniName            = ".cmclients.ini"
	IniPathEnv         = "CMCLIENTS_INI"
	CurrentEnvironment = "current_environment"
	UpdatedEnvKey      = "updated_environment"

	CmHost         = "cm_host"
	CmAPIToken     = "cm_api_token"
	CmAccessToken  = "cm_access_token"
	CmChunkSize    = "cm_chunk_size"
	CmPartSize     = "cm_part_size"
	CmPollInterval = "cm_poll_interval"
	CmPollTimeout  = "cm_poll_timeout"
	CmLogLevel     = "cm_log_level"

	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
)

const (
	// DefaultChunkSize is the largest file sent as a single-part upload.
	DefaultChunkSize int64 = 50 * 1024 * 1024
	// DefaultPartSize is the target size of one multipart upload part.
	DefaultPartSize int64 = 20 * 1024 * 1024

	CSVContentType = "text/csv; charset=utf-8"
)
