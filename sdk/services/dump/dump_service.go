// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package dump

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"go.uber.org/zap"
)

type DumpService struct {
	http   config.CoreHTTP
	jobs   *job.JobService
	store  config.ObjectStore
	hook   *config.ProgressHook
	logger *zap.Logger
	poll   job.PollOptions
}

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
	store      config.ObjectStore
	hook       *config.ProgressHook
	poll       job.PollOptions
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObjectStore overrides the S3 client built from Config.S3.
func WithObjectStore(store config.ObjectStore) Option {
	return func(o *options) { o.store = store }
}

// WithStagingHook reports progress of s3:// staging transfers.
func WithStagingHook(h *config.ProgressHook) Option {
	return func(o *options) { o.hook = h }
}

func WithPollOptions(p job.PollOptions) Option {
	return func(o *options) { o.poll = p }
}

// NewDumpService authenticates against the platform with conf.Core and, when
// S3 settings are present, prepares the client used for s3:// outputs.
func NewDumpService(ctx context.Context, conf config.Config, opts ...Option) (*DumpService, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	core, err := config.NewAuthenticatedCore(ctx, o.httpClient, conf.Core)
	if err != nil {
		return nil, err
	}

	if o.store == nil && conf.S3.Enabled() {
		s3c, err := config.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, fmt.Errorf("S3 init failed: %w", err)
		}
		o.store = s3c
	}

	return newDumpService(core, o)
}

// NewDumpServiceFromCore wraps an existing, already authenticated core.
func NewDumpServiceFromCore(core config.CoreHTTP, opts ...Option) (*DumpService, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newDumpService(core, o)
}

func newDumpService(core config.CoreHTTP, o *options) (*DumpService, error) {
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	jobs, err := job.NewJobService(core, logger)
	if err != nil {
		return nil, err
	}
	return &DumpService{
		http:   core,
		jobs:   jobs,
		store:  o.store,
		hook:   o.hook,
		logger: logger,
		poll:   o.poll,
	}, nil
}

// JobStatus returns the current state of a dataDump job.
func (s *DumpService) JobStatus(ctx context.Context, id string) (*job.JobDetail, error) {
	return s.jobs.Status(ctx, id, job.TypeDataDump)
}
