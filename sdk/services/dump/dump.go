// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package dump

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"go.uber.org/zap"
)

// DumpDataset runs a dataDump job for req.Dataset, waits for it and writes the
// resulting CSV. It returns the location written to.
func (s *DumpService) DumpDataset(ctx context.Context, req DumpRequest) (string, error) {
	if req.Project == "" {
		return "", errors.New("project is mandatory")
	}
	if req.Dataset == "" {
		return "", errors.New("dataset is mandatory")
	}
	filename := req.Dataset + ".csv"

	var remote *utils.ParsedPath
	if req.Output != "" {
		pp, err := utils.ParsePath(req.Output)
		if err != nil {
			return "", err
		}
		if !pp.IsLocal() {
			if pp.Scheme != utils.SchemeS3 {
				return "", fmt.Errorf("unsupported output scheme %q", pp.Scheme)
			}
			if s.store == nil {
				return "", errors.New("s3 output requires S3 configuration")
			}
			remote = pp
		}
	}

	s.logger.Info("starting data dump",
		zap.String("project", req.Project),
		zap.String("dataset", req.Dataset))

	submitted, err := s.jobs.Submit(ctx, job.JobRequest{
		Type:      job.TypeDataDump,
		ProjectID: req.Project,
		Content:   dataDumpContent{Dataset: req.Dataset},
	})
	if err != nil {
		return "", err
	}

	detail, err := s.jobs.Wait(ctx, submitted.ID, job.TypeDataDump, s.poll)
	if err != nil {
		return "", err
	}

	links := detail.ResultLinks()
	if len(links) == 0 || links[0].Href == "" {
		return "", errors.New("no result file URL found in job response")
	}
	resultURL := s.http.ResolveLink(links[0].Href)
	s.logger.Debug("got result file URL", zap.String("url", resultURL))

	if remote != nil {
		return s.dumpToObjectStore(ctx, resultURL, remote, filename)
	}

	target, err := chooseLocalTarget(req.Output, filename)
	if err != nil {
		return "", err
	}
	if err := s.download(ctx, resultURL, target); err != nil {
		return "", err
	}
	s.logger.Info("dataset dumped", zap.String("path", target))
	return target, nil
}

func (s *DumpService) dumpToObjectStore(ctx context.Context, resultURL string, remote *utils.ParsedPath, filename string) (string, error) {
	tmp := utils.TempFilePath("cm-dump-", ".csv")
	defer os.Remove(tmp)

	if err := s.download(ctx, resultURL, tmp); err != nil {
		return "", err
	}

	key := remote.Path
	if key == "" || strings.HasSuffix(key, "/") {
		key += filename
	}
	if err := s.store.UploadFile(ctx, remote.Host, key, tmp, s.hook); err != nil {
		return "", err
	}

	location := "s3://" + remote.Host + "/" + key
	s.logger.Info("dataset dumped", zap.String("path", location))
	return location, nil
}

// download streams url into localPath, removing the partial file on failure.
func (s *DumpService) download(ctx context.Context, url, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return err
	}

	n, err := s.http.Stream(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return err
	}
	s.logger.Debug("file downloaded", zap.String("path", localPath), zap.Int64("bytes", n))
	return nil
}

// chooseLocalTarget:
// - empty dst            -> filename in the cwd
// - existing directory   -> dst/filename
// - existing file        -> dst
// - missing, ends .csv   -> dst, parent directories created
// - missing otherwise    -> directory dst is created, dst/filename
func chooseLocalTarget(dst, filename string) (string, error) {
	if dst == "" {
		return filename, nil
	}
	info, statErr := os.Stat(dst)
	if statErr == nil {
		if info.IsDir() {
			return filepath.Join(dst, filename), nil
		}
		return dst, nil
	}
	if !os.IsNotExist(statErr) {
		return "", statErr
	}
	if strings.EqualFold(filepath.Ext(dst), ".csv") {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", err
		}
		return dst, nil
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dst, filename), nil
}
