// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	SchemeLocal = "file"
	SchemeS3    = "s3"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// ParsedPath is a location given on the command line or in a request:
// s3://bucket/key, http(s)://host/path or a plain local path.
type ParsedPath struct {
	Scheme string
	Host   string // bucket for s3
	Path   string // key for s3, without leading slash
}

func (p *ParsedPath) IsLocal() bool {
	return p.Scheme == SchemeLocal
}

func (p *ParsedPath) String() string {
	switch p.Scheme {
	case SchemeLocal:
		return p.Path
	case SchemeS3:
		return "s3://" + p.Host + "/" + p.Path
	default:
		return p.Scheme + "://" + p.Host + p.Path
	}
}

func ParsePath(raw string) (*ParsedPath, error) {
	if raw == "" {
		return nil, errors.New("empty path")
	}

	if !strings.Contains(raw, "://") {
		return &ParsedPath{
			Scheme: SchemeLocal,
			Path:   raw,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case SchemeS3:
		if u.Host == "" {
			return nil, fmt.Errorf("missing bucket in %q", raw)
		}
		key := strings.TrimPrefix(u.Path, "/")
		return &ParsedPath{
			Scheme: SchemeS3,
			Host:   u.Host,
			Path:   key,
		}, nil
	case SchemeHTTP, SchemeHTTPS:
		return &ParsedPath{
			Scheme: strings.ToLower(u.Scheme),
			Host:   u.Host,
			Path:   u.Path,
		}, nil
	case SchemeLocal:
		return &ParsedPath{
			Scheme: SchemeLocal,
			Path:   u.Path,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}
