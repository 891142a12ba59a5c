// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses data as a single gzip member. Members produced for
// consecutive parts can be concatenated into one valid gzip stream.
func Gzip(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
