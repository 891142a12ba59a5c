// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressHookRendersFinalLine(t *testing.T) {
	var buf bytes.Buffer
	hook := NewProgressHook(&buf, "download")

	hook.OnStart("inbox/a.csv", 2048)
	hook.OnProgress("inbox/a.csv", 1024, 2048)
	hook.OnDone("inbox/a.csv", 2048, time.Second)

	out := buf.String()
	assert.Contains(t, out, "download inbox/a.csv")
	assert.Contains(t, out, "100.00%")
	assert.Contains(t, out, "2.00 KB / 2.00 KB")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressSpinnerWithoutTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "upload", 0)
	p.Add(10)
	p.Done()
	assert.Contains(t, buf.String(), "10 B")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.50 KB", HumanBytes(1536))
	assert.Equal(t, "20.00 MB", HumanBytes(DefaultPartSize))
}
