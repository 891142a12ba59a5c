// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		raw    string
		scheme string
		host   string
		path   string
	}{
		{"data/baskets.csv", SchemeLocal, "", "data/baskets.csv"},
		{"file:///tmp/x.csv", SchemeLocal, "", "/tmp/x.csv"},
		{"s3://bucket/dir/x.csv", SchemeS3, "bucket", "dir/x.csv"},
		{"s3://bucket/dir/", SchemeS3, "bucket", "dir/"},
		{"https://host/a/b.csv", SchemeHTTPS, "host", "/a/b.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			pp, err := ParsePath(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, pp.Scheme)
			assert.Equal(t, tt.host, pp.Host)
			assert.Equal(t, tt.path, pp.Path)
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, raw := range []string{"", "s3:///key", "ftp://host/x"} {
		_, err := ParsePath(raw)
		assert.Error(t, err, raw)
	}
}

func TestParsedPathString(t *testing.T) {
	pp, err := ParsePath("s3://bucket/a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/a/b.csv", pp.String())
	assert.False(t, pp.IsLocal())

	pp, err = ParsePath("out/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "out/b.csv", pp.String())
	assert.True(t, pp.IsLocal())
}
