// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"go.uber.org/zap"
)

// UploadData uploads a CSV file and submits the dataPull job that loads it into
// req.Dataset. Files up to the chunk size go in one request, bigger ones are
// split, compressed and sent as a multipart upload.
func (s *LoadService) UploadData(ctx context.Context, req UploadRequest) (*job.JobDetail, error) {
	if req.Project == "" {
		return nil, errors.New("project is mandatory")
	}
	if req.Dataset == "" {
		return nil, errors.New("dataset is mandatory")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeFull
	}
	if mode != ModeFull && mode != ModeIncremental {
		return nil, ErrInvalidMode
	}

	localPath, cleanup, err := s.localInput(ctx, req.FilePath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", localPath)
	}
	size := info.Size()

	s.logger.Info("uploading csv file",
		zap.String("project", req.Project),
		zap.String("dataset", req.Dataset),
		zap.String("mode", mode),
		zap.Int64("size", size))

	var fileURI string
	if size <= s.chunkSize {
		s.logger.Debug("using single-part upload")
		fileURI, err = s.singlePartUpload(ctx, req.Project, localPath, size)
	} else {
		parts := int((size + s.partSize - 1) / s.partSize)
		s.logger.Debug("using multipart upload", zap.Int("parts", parts))
		fileURI, err = s.multipartUpload(ctx, req.Project, localPath, size, parts, req.CsvOptions)
	}
	if err != nil {
		return nil, err
	}

	submitted, err := s.jobs.Submit(ctx, job.JobRequest{
		Type:      job.TypeDataPull,
		ProjectID: req.Project,
		Content: dataPullContent{
			Dataset:    req.Dataset,
			Mode:       mode,
			Type:       "csv",
			Upload:     fileURI,
			CsvOptions: req.CsvOptions,
		},
	})
	if err != nil {
		return nil, err
	}
	if req.NoWait {
		return submitted, nil
	}

	detail, err := s.jobs.Wait(ctx, submitted.ID, job.TypeDataPull, s.poll)
	if err != nil {
		return nil, err
	}
	s.logger.Info("data load completed", zap.String("job_id", detail.ID))
	return detail, nil
}

// localInput resolves s3:// inputs to a temporary local copy.
func (s *LoadService) localInput(ctx context.Context, raw string) (string, func(), error) {
	noop := func() {}
	if raw == "" {
		return "", noop, errors.New("file path is mandatory")
	}
	pp, err := utils.ParsePath(raw)
	if err != nil {
		return "", noop, err
	}

	if pp.IsLocal() {
		return pp.Path, noop, nil
	}
	if pp.Scheme != utils.SchemeS3 {
		return "", noop, fmt.Errorf("unsupported input scheme %q", pp.Scheme)
	}
	if s.store == nil {
		return "", noop, errors.New("s3 input requires S3 configuration")
	}

	tmp := utils.TempFilePath("cm-load-", ".csv")
	cleanup := func() { _ = os.Remove(tmp) }
	if err := s.store.DownloadFile(ctx, pp.Host, pp.Path, tmp, s.hook); err != nil {
		cleanup()
		return "", noop, err
	}
	return tmp, cleanup, nil
}

// initUpload performs POST {base}/projects/{project}/md/data/upload[?parts=N]
func (s *LoadService) initUpload(ctx context.Context, project string, parts int) (*uploadResponse, error) {
	params := map[string]string{}
	if parts > 0 {
		params["parts"] = strconv.Itoa(parts)
	}
	u := s.http.BuildURL("/projects/"+url.PathEscape(project)+"/md/data/upload", params)

	body, _, err := s.http.Do(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid upload response: %w", err)
	}
	return &resp, nil
}

// fileURI is the self link the dataPull job refers to.
func (r *uploadResponse) fileURI() (string, error) {
	if len(r.Links) == 0 {
		return "", errors.New("no links found in upload response")
	}
	for _, l := range r.Links {
		if l.Rel == "self" && l.Href != "" {
			return l.Href, nil
		}
	}
	return "", errors.New("no file URI found in upload response")
}

func (s *LoadService) singlePartUpload(ctx context.Context, project, localPath string, size int64) (string, error) {
	resp, err := s.initUpload(ctx, project, 0)
	if err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", errors.New("no upload URL found in upload response")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := s.http.PutPresigned(ctx, resp.UploadURL, f, size, utils.CSVContentType); err != nil {
		s.logger.Error("file upload failed", zap.Error(err))
		return "", err
	}
	s.reportProgress(size, size)

	return resp.fileURI()
}
