// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"io"
	"time"

	"github.com/clevermaps/cm-go-clients/sdk/config"
)

// NewProgressHook renders an S3 transfer as a single progress line on w.
func NewProgressHook(w io.Writer, label string) *config.ProgressHook {
	var (
		bar  *Progress
		prev int64
	)
	return &config.ProgressHook{
		OnStart: func(key string, total int64) {
			bar = NewProgress(w, label+" "+key, total)
			prev = 0
		},
		OnProgress: func(key string, written, total int64) {
			if bar == nil {
				bar = NewProgress(w, label+" "+key, total)
			}
			if delta := written - prev; delta > 0 {
				bar.Add(delta)
			}
			prev = written
		},
		OnDone: func(key string, total int64, took time.Duration) {
			if bar == nil {
				return
			}
			if total > prev {
				bar.Add(total - prev)
			}
			bar.Done()
			bar = nil
		},
	}
}
