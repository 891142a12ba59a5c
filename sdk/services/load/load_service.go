// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"go.uber.org/zap"
)

type LoadService struct {
	http      config.CoreHTTP
	jobs      *job.JobService
	store     config.ObjectStore
	hook      *config.ProgressHook
	logger    *zap.Logger
	poll      job.PollOptions
	chunkSize int64
	partSize  int64
	progress  ProgressFunc
}

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
	store      config.ObjectStore
	hook       *config.ProgressHook
	poll       job.PollOptions
	chunkSize  int64
	partSize   int64
	progress   ProgressFunc
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

// WithChunkSize sets the largest file sent as a single-part upload.
func WithChunkSize(n int64) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithPartSize sets the target size of a multipart part before compression.
func WithPartSize(n int64) Option {
	return func(o *options) { o.partSize = n }
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

func NewLoadService(ctx context.Context, conf config.Config, opts ...Option) (*LoadService, error) {
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

	return newLoadService(core, o)
}

// NewLoadServiceFromCore wraps an existing, already authenticated core.
func NewLoadServiceFromCore(core config.CoreHTTP, opts ...Option) (*LoadService, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newLoadService(core, o)
}

func newLoadService(core config.CoreHTTP, o *options) (*LoadService, error) {
	if o.chunkSize < 0 || o.partSize < 0 {
		return nil, errors.New("chunk and part sizes must not be negative")
	}
	if o.chunkSize == 0 {
		o.chunkSize = utils.DefaultChunkSize
	}
	if o.partSize == 0 {
		o.partSize = utils.DefaultPartSize
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jobs, err := job.NewJobService(core, logger)
	if err != nil {
		return nil, err
	}
	return &LoadService{
		http:      core,
		jobs:      jobs,
		store:     o.store,
		hook:      o.hook,
		logger:    logger,
		poll:      o.poll,
		chunkSize: o.chunkSize,
		partSize:  o.partSize,
		progress:  o.progress,
	}, nil
}

// JobStatus returns the current state of a dataPull job.
func (s *LoadService) JobStatus(ctx context.Context, id string) (*job.JobDetail, error) {
	return s.jobs.Status(ctx, id, job.TypeDataPull)
}

func (s *LoadService) reportProgress(sent, total int64) {
	if s.progress != nil {
		s.progress(sent, total)
	}
}
