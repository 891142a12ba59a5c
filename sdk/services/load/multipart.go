// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/clevermaps/cm-go-clients/sdk/utils"
	"go.uber.org/zap"
)

func (s *LoadService) multipartUpload(ctx context.Context, project, localPath string, size int64, parts int, csvOpts *CsvOptions) (string, error) {
	resp, err := s.initUpload(ctx, project, parts)
	if err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var (
		etags []partETag
		sent  int64
	)
	split := utils.SplitOptions{PartSize: s.partSize, NumParts: parts}
	if csvOpts != nil {
		split.Separator = singleByte(csvOpts.Separator)
		split.Quote = singleByte(csvOpts.Quote)
	}
	_, err = utils.SplitCSV(f, split, func(p utils.CSVPart) error {
		if p.Number > len(resp.UploadURLs) {
			return fmt.Errorf("no upload URL for part %d", p.Number)
		}
		etag, err := s.uploadPart(ctx, resp.UploadURLs[p.Number-1], p)
		if err != nil {
			s.logger.Error("part upload failed", zap.Int("part", p.Number), zap.Error(err))
			return err
		}
		etags = append(etags, partETag{ETag: etag, PartNumber: p.Number})
		sent += int64(len(p.Data))
		s.reportProgress(sent, size)
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.completeMultipart(ctx, project, resp, etags); err != nil {
		return "", err
	}
	return resp.fileURI()
}

// singleByte returns the character of a one-byte option, 0 otherwise.
func singleByte(s string) byte {
	if len(s) == 1 {
		return s[0]
	}
	return 0
}

// uploadPart gzips one part, PUTs it to its presigned URL and returns the ETag.
func (s *LoadService) uploadPart(ctx context.Context, presignedURL string, p utils.CSVPart) (string, error) {
	compressed, err := utils.Gzip(p.Data)
	if err != nil {
		return "", err
	}
	s.logger.Debug("uploading gzip compressed part",
		zap.Int("part", p.Number),
		zap.Int("original_size", len(p.Data)),
		zap.Int("compressed_size", len(compressed)))

	headers, err := s.http.PutPresigned(ctx, presignedURL, bytes.NewReader(compressed), int64(len(compressed)), utils.CSVContentType)
	if err != nil {
		return "", err
	}
	etag := headers.Get("ETag")
	if etag == "" {
		return "", errors.New("no ETag received in response")
	}
	return etag, nil
}

// completeMultipart performs POST {base}/projects/{project}/md/data/upload/{id}/complete
func (s *LoadService) completeMultipart(ctx context.Context, project string, resp *uploadResponse, etags []partETag) error {
	payload, err := json.Marshal(completeMultipartRequest{
		ID:        resp.ID,
		UploadID:  resp.UploadID,
		PartETags: etags,
	})
	if err != nil {
		return err
	}

	u := s.http.BuildURL("/projects/"+url.PathEscape(project)+"/md/data/upload/"+url.PathEscape(resp.ID)+"/complete", nil)
	_, _, err = s.http.Do(ctx, http.MethodPost, u, payload)
	return err
}
