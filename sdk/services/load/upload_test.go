// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package load_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"github.com/clevermaps/cm-go-clients/sdk/internal/cmtest"
	"github.com/clevermaps/cm-go-clients/sdk/services/dump"
	"github.com/clevermaps/cm-go-clients/sdk/services/job"
	"github.com/clevermaps/cm-go-clients/sdk/services/load"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "id,store,amount\n"

var fastPoll = load.WithPollOptions(job.PollOptions{Interval: time.Millisecond})

func newLoadService(t *testing.T, p *cmtest.Platform, opts ...load.Option) *load.LoadService {
	t.Helper()
	opts = append([]load.Option{load.WithHTTPClient(p.Server.Client()), fastPoll}, opts...)
	svc, err := load.NewLoadService(context.Background(), p.Config(), opts...)
	require.NoError(t, err)
	return svc
}

// csvRows builds a CSV with n data rows, some with quoted multi-line fields.
func csvRows(n int) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i := 1; i <= n; i++ {
		if i%7 == 0 {
			fmt.Fprintf(&sb, "%d,\"Brno\nstred\",%d.5\n", i, i)
			continue
		}
		fmt.Fprintf(&sb, "%d,Praha,%d.25\n", i, i)
	}
	return sb.String()
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestUploadDataSinglePart(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	p.PendingPolls = 2

	var sent, total int64
	svc := newLoadService(t, p, load.WithProgress(func(s, tt int64) { sent, total = s, tt }))

	content := csvRows(20)
	detail, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, content),
		Dataset:  "baskets",
	})
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, detail.Status)
	assert.Equal(t, 1, p.SingleUploads())
	assert.Equal(t, 0, p.MultipartUploads())
	assert.Equal(t, int64(len(content)), sent)
	assert.Equal(t, int64(len(content)), total)

	data, ok := p.Dataset("p1", "baskets")
	require.True(t, ok)
	assert.Equal(t, content, string(data))
}

func TestUploadDataMultipart(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")

	var sent int64
	svc := newLoadService(t, p,
		load.WithChunkSize(256),
		load.WithPartSize(200),
		load.WithProgress(func(s, _ int64) { sent = s }),
	)

	content := csvRows(100)
	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, content),
		Dataset:  "baskets",
		Mode:     load.ModeFull,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.SingleUploads())
	assert.Equal(t, 1, p.MultipartUploads())

	parts := p.PartBodies()
	maxParts := (len(content) + 199) / 200
	require.Greater(t, len(parts), 1)
	assert.LessOrEqual(t, len(parts), maxParts)

	var joined strings.Builder
	for i, b := range parts {
		part := gunzip(t, b)
		if i == 0 {
			assert.True(t, strings.HasPrefix(part, header))
		} else {
			assert.NotContains(t, part, header)
		}
		// every part ends on a record boundary
		assert.True(t, strings.HasSuffix(part, "\n"))
		joined.WriteString(part)
	}
	assert.Equal(t, content, joined.String())
	assert.Equal(t, int64(len(content)), sent)

	data, ok := p.Dataset("p1", "baskets")
	require.True(t, ok)
	assert.Equal(t, content, string(data))
}

func TestUploadDataIncremental(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddDataset("p1", "baskets", []byte(header+"1,Brno,1\n"))
	svc := newLoadService(t, p)

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, header+"2,Praha,2\n"),
		Dataset:  "baskets",
		Mode:     load.ModeIncremental,
	})
	require.NoError(t, err)

	data, _ := p.Dataset("p1", "baskets")
	assert.Equal(t, header+"1,Brno,1\n2,Praha,2\n", string(data))
}

func TestUploadDataNoWait(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	svc := newLoadService(t, p)

	detail, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, csvRows(3)),
		Dataset:  "baskets",
		NoWait:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, job.StatusNotStarted, detail.Status)

	for _, r := range p.Requests() {
		assert.NotEqual(t, "GET /rest/jobs/"+detail.ID, r)
	}

	status, err := svc.JobStatus(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, status.Status)
}

func TestUploadDataValidation(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	svc := newLoadService(t, p)
	ctx := context.Background()
	file := writeCSV(t, csvRows(1))

	_, err := svc.UploadData(ctx, load.UploadRequest{Project: "p1", FilePath: file, Dataset: "d", Mode: "append"})
	assert.ErrorIs(t, err, load.ErrInvalidMode)

	_, err = svc.UploadData(ctx, load.UploadRequest{FilePath: file, Dataset: "d"})
	assert.EqualError(t, err, "project is mandatory")

	_, err = svc.UploadData(ctx, load.UploadRequest{Project: "p1", FilePath: file})
	assert.EqualError(t, err, "dataset is mandatory")

	_, err = svc.UploadData(ctx, load.UploadRequest{Project: "p1", Dataset: "d"})
	assert.EqualError(t, err, "file path is mandatory")

	_, err = svc.UploadData(ctx, load.UploadRequest{Project: "p1", FilePath: "s3://bucket/data.csv", Dataset: "d"})
	assert.Error(t, err)

	_, err = svc.UploadData(ctx, load.UploadRequest{Project: "p1", FilePath: filepath.Dir(file), Dataset: "d"})
	assert.ErrorContains(t, err, "is a directory")

	assert.Zero(t, p.SingleUploads())
}

func TestUploadDataMissingFile(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	svc := newLoadService(t, p)

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: filepath.Join(t.TempDir(), "absent.csv"),
		Dataset:  "d",
	})
	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestUploadDataUnknownProject(t *testing.T) {
	p := cmtest.NewPlatform(t)
	svc := newLoadService(t, p)

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "nope",
		FilePath: writeCSV(t, csvRows(2)),
		Dataset:  "d",
	})
	var apiErr *config.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestNewLoadServiceRejectsNegativeSizes(t *testing.T) {
	p := cmtest.NewPlatform(t)
	_, err := load.NewLoadService(context.Background(), p.Config(),
		load.WithHTTPClient(p.Server.Client()), load.WithPartSize(-1))
	assert.Error(t, err)
}

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) DownloadFile(_ context.Context, bucket, key, localPath string, _ *config.ProgressHook) error {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return fs.ErrNotExist
	}
	return os.WriteFile(localPath, data, 0o600)
}

func (m *memStore) UploadFile(context.Context, string, string, string, *config.ProgressHook) error {
	return errors.New("read only")
}

func TestUploadDataFromObjectStore(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	content := csvRows(5)
	store := &memStore{objects: map[string][]byte{"inbox/baskets.csv": []byte(content)}}
	svc := newLoadService(t, p, load.WithObjectStore(store))

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: "s3://inbox/baskets.csv",
		Dataset:  "baskets",
	})
	require.NoError(t, err)

	data, _ := p.Dataset("p1", "baskets")
	assert.Equal(t, content, string(data))
}

func TestDumpThenLoadRoundTrip(t *testing.T) {
	p := cmtest.NewPlatform(t)
	content := csvRows(60)
	p.AddDataset("p1", "baskets", []byte(content))
	ctx := context.Background()

	dumper, err := dump.NewDumpService(ctx, p.Config(),
		dump.WithHTTPClient(p.Server.Client()),
		dump.WithPollOptions(job.PollOptions{Interval: time.Millisecond}))
	require.NoError(t, err)

	path, err := dumper.DumpDataset(ctx, dump.DumpRequest{Project: "p1", Dataset: "baskets", Output: t.TempDir()})
	require.NoError(t, err)

	loader := newLoadService(t, p, load.WithChunkSize(512), load.WithPartSize(300))
	_, err = loader.UploadData(ctx, load.UploadRequest{Project: "p1", FilePath: path, Dataset: "baskets_copy"})
	require.NoError(t, err)

	data, ok := p.Dataset("p1", "baskets_copy")
	require.True(t, ok)
	assert.Equal(t, content, string(data))
	assert.Equal(t, 1, p.MultipartUploads())
}

func TestUploadDataMissingETag(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	p.OmitETag = true
	svc := newLoadService(t, p, load.WithChunkSize(256), load.WithPartSize(200))

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, csvRows(100)),
		Dataset:  "baskets",
	})
	assert.EqualError(t, err, "no ETag received in response")

	_, ok := p.Dataset("p1", "baskets")
	assert.False(t, ok)
	for _, r := range p.Requests() {
		assert.NotContains(t, r, "/complete")
	}
}

func TestUploadDataFailedJob(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	p.PullFailure = "bad csv"
	svc := newLoadService(t, p)

	detail, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:  "p1",
		FilePath: writeCSV(t, csvRows(3)),
		Dataset:  "baskets",
	})
	assert.Nil(t, detail)
	var failed *job.JobFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, job.TypeDataPull, failed.Type)
	assert.Equal(t, "bad csv", failed.Message)
}

func TestUploadDataMultipartStrayQuote(t *testing.T) {
	p := cmtest.NewPlatform(t)
	p.AddProject("p1")
	svc := newLoadService(t, p, load.WithChunkSize(256), load.WithPartSize(200))

	var sb strings.Builder
	sb.WriteString("id;item;qty\n1;5\" pipe;1\n")
	for i := 2; i < 150; i++ {
		fmt.Fprintf(&sb, "%d;bolt;%d\n", i, i)
	}
	content := sb.String()

	_, err := svc.UploadData(context.Background(), load.UploadRequest{
		Project:    "p1",
		FilePath:   writeCSV(t, content),
		Dataset:    "parts",
		CsvOptions: &load.CsvOptions{Separator: ";"},
	})
	require.NoError(t, err)
	assert.Greater(t, len(p.PartBodies()), 1)

	data, _ := p.Dataset("p1", "parts")
	assert.Equal(t, content, string(data))
}
