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

	"go.uber.org/zap"
)

// Submit performs POST {base}/jobs
func (s *JobService) Submit(ctx context.Context, req JobRequest) (*JobDetail, error) {
	if req.Type == "" {
		return nil, errors.New("job type not specified")
	}
	if req.ProjectID == "" {
		return nil, errors.New("project not specified")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job request: %w", err)
	}

	body, _, err := s.http.Do(ctx, http.MethodPost, s.http.BuildURL("/jobs", nil), payload)
	if err != nil {
		return nil, err
	}

	var detail JobDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("invalid job response: %w", err)
	}
	s.logger.Debug("job submitted",
		zap.String("job_id", detail.ID),
		zap.String("type", req.Type),
		zap.String("project", req.ProjectID))
	return &detail, nil
}
