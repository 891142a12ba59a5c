// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func UUIDv4NoDash() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// TempFilePath returns a unique, not yet existing path in the system temp dir.
func TempFilePath(prefix, ext string) string {
	return filepath.Join(os.TempDir(), prefix+UUIDv4NoDash()+ext)
}
