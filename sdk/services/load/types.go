// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"errors"

	"github.com/clevermaps/cm-go-clients/sdk/services/job"
)

const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

var ErrInvalidMode = errors.New("invalid data loading mode, must be 'full' or 'incremental'")

// CsvOptions describes how the platform parses the uploaded file. Unset fields
// keep the platform defaults.
type CsvOptions struct {
	Header    *bool    `json:"header,omitempty"`
	Separator string   `json:"separator,omitempty"`
	Quote     string   `json:"quote,omitempty"`
	Escape    string   `json:"escape,omitempty"`
	Null      []string `json:"null,omitempty"`
	ForceNull []string `json:"forceNull,omitempty"`
}

type UploadRequest struct {
	Project string
	// FilePath is a local path or an s3://bucket/key location.
	FilePath string
	Dataset  string
	// Mode is ModeFull (default) or ModeIncremental.
	Mode string
	// NoWait returns right after the dataPull job is submitted.
	NoWait     bool
	CsvOptions *CsvOptions
}

// ProgressFunc receives the number of raw CSV bytes sent so far.
type ProgressFunc func(sent, total int64)

// answer of POST /projects/{id}/md/data/upload
type uploadResponse struct {
	ID         string     `json:"id"`
	UploadID   string     `json:"uploadId,omitempty"`
	UploadURL  string     `json:"uploadUrlEncoded,omitempty"`
	UploadURLs []string   `json:"uploadUrlsEncoded,omitempty"`
	Links      []job.Link `json:"links,omitempty"`
}

type partETag struct {
	ETag       string `json:"eTag"`
	PartNumber int    `json:"partNumber"`
}

type completeMultipartRequest struct {
	ID        string     `json:"id"`
	UploadID  string     `json:"uploadId"`
	PartETags []partETag `json:"partETags"`
}

// content of a dataPull job
type dataPullContent struct {
	Dataset    string      `json:"dataset"`
	Mode       string      `json:"mode"`
	Type       string      `json:"type"`
	Upload     string      `json:"upload"`
	CsvOptions *CsvOptions `json:"csvOptions,omitempty"`
}
