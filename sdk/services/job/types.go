// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"errors"
	"fmt"
	"time"
)

const (
	TypeDataDump = "dataDump"
	TypeDataPull = "dataPull"

	StatusNotStarted = "NOT_STARTED"
	StatusRunning    = "RUNNING"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
)

const DefaultPollInterval = 5 * time.Second

var ErrJobTimeout = errors.New("job did not complete in time")

// JobRequest is the body of POST /jobs. Content depends on Type.
type JobRequest struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
	Content   any    `json:"content"`
}

type Link struct {
	Rel  string `json:"rel,omitempty"`
	Href string `json:"href"`
}

type JobDetail struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	StartDate string         `json:"startDate,omitempty"`
	EndDate   string         `json:"endDate,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Links     []Link         `json:"links,omitempty"`
}

func (d *JobDetail) Finished() bool {
	return d.Status == StatusSucceeded || d.Status == StatusFailed
}

// ResultLinks extracts result.links, which the platform returns as a loosely
// typed list of {rel, href} objects.
func (d *JobDetail) ResultLinks() []Link {
	raw, _ := d.Result["links"].([]any)
	links := make([]Link, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		href, _ := m["href"].(string)
		rel, _ := m["rel"].(string)
		links = append(links, Link{Rel: rel, Href: href})
	}
	return links
}

type PollOptions struct {
	// Interval between status checks, DefaultPollInterval when zero.
	Interval time.Duration
	// Timeout of zero waits forever (or until the context ends).
	Timeout time.Duration
}

// JobFailedError reports a job that finished in the FAILED state.
type JobFailedError struct {
	ID      string
	Type    string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed", e.ID)
	}
	return fmt.Sprintf("job %s failed: %s", e.ID, e.Message)
}
