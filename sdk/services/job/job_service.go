// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"errors"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"go.uber.org/zap"
)

type JobService struct {
	http   config.CoreHTTP
	logger *zap.Logger
}

// NewJobService works on an already authenticated core, so the dump and load
// services can share one token.
func NewJobService(core config.CoreHTTP, logger *zap.Logger) (*JobService, error) {
	if core == nil {
		return nil, errors.New("core http client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{http: core, logger: logger}, nil
}
