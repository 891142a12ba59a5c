// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"io"
	"time"
)

/* ------------ tiny UI helper for single-line progress ------------ */

type Progress struct {
	w          io.Writer
	label      string
	totalBytes int64
	doneBytes  int64
	spinIdx    int
	lastTick   time.Time
}

var spinner = []rune{'|', '/', '-', '\\'}

// NewProgress renders to w. A total of 0 or less shows a spinner instead of a
// percentage.
func NewProgress(w io.Writer, label string, total int64) *Progress {
	return &Progress{w: w, label: label, totalBytes: total}
}

func (p *Progress) Add(delta int64) {
	p.doneBytes += delta
	p.Render(false)
}

func HumanBytes(n int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func (p *Progress) Render(force bool) {
	// throttling: ~10 updates per second
	if !force && time.Since(p.lastTick) < 100*time.Millisecond {
		return
	}
	p.lastTick = time.Now()

	if p.totalBytes > 0 {
		if p.doneBytes > p.totalBytes {
			p.doneBytes = p.totalBytes
		}
		pct := float64(p.doneBytes) / float64(p.totalBytes) * 100
		fmt.Fprintf(p.w, "\r%s: %6.2f%% (%s / %s)   ",
			p.label, pct, HumanBytes(p.doneBytes), HumanBytes(p.totalBytes))
		return
	}
	ch := spinner[p.spinIdx%len(spinner)]
	p.spinIdx++
	fmt.Fprintf(p.w, "\r%s: [%c] %s   ", p.label, ch, HumanBytes(p.doneBytes))
}

func (p *Progress) Done() {
	p.Render(true)
	fmt.Fprintln(p.w)
}
