// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Status performs GET {base}/jobs/{id}?type={jobType}
func (s *JobService) Status(ctx context.Context, id, jobType string) (*JobDetail, error) {
	if id == "" {
		return nil, errors.New("job id not specified")
	}

	u := s.http.BuildURL("/jobs/"+url.PathEscape(id), map[string]string{"type": jobType})
	body, _, err := s.http.Do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var detail JobDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("invalid job status response: %w", err)
	}
	return &detail, nil
}

// Wait polls the job until it succeeds or fails. A failed job yields the last
// detail together with a *JobFailedError.
func (s *JobService) Wait(ctx context.Context, id, jobType string, opts PollOptions) (*JobDetail, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()

	for {
		detail, err := s.Status(ctx, id, jobType)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("job status", zap.String("job_id", id), zap.String("status", detail.Status))

		if detail.Finished() {
			if detail.Status == StatusFailed {
				s.logger.Error("job failed", zap.String("job_id", id), zap.String("message", detail.Message))
				return detail, &JobFailedError{ID: id, Type: jobType, Message: detail.Message}
			}
			return detail, nil
		}

		if opts.Timeout > 0 && time.Since(start) > opts.Timeout {
			return detail, fmt.Errorf("job %s after %s: %w", id, opts.Timeout, ErrJobTimeout)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
