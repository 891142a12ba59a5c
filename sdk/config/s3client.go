// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// multipartThreshold is the size above which UploadFile switches to the
// manager uploader.
const multipartThreshold = 100 * 1024 * 1024

// ObjectStore is the subset of S3Client used to stage s3:// inputs and outputs.
type ObjectStore interface {
	DownloadFile(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error
	UploadFile(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error
}

type S3Client struct {
	s3 *s3.Client
}

func NewS3Client(ctx context.Context, cfgCreds S3Config) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfgCreds.Region),
	}
	// without static keys the default chain (env, shared config, IMDS) applies
	if cfgCreds.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfgCreds.AccessKey, cfgCreds.SecretKey, cfgCreds.AccessToken),
		)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := func(o *s3.Options) {
		if cfgCreds.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfgCreds.EndpointURL)
			o.UsePathStyle = true
		}
	}

	return &S3Client{
		s3: s3.NewFromConfig(cfg, s3Options),
	}, nil
}

/* -------------------- PROGRESS HOOK -------------------- */

type ProgressHook struct {
	OnStart    func(key string, totalBytes int64)
	OnProgress func(key string, written, totalBytes int64)
	OnDone     func(key string, totalBytes int64, took time.Duration)
}

func (h *ProgressHook) start(key string, total int64) {
	if h != nil && h.OnStart != nil {
		h.OnStart(key, total)
	}
}

func (h *ProgressHook) done(key string, total int64, took time.Duration) {
	if h != nil && h.OnDone != nil {
		h.OnDone(key, total, took)
	}
}

type progressWriter struct {
	key        string
	total      int64
	written    int64
	lastEmit   time.Time
	interval   time.Duration
	onProgress func(key string, written, total int64)
}

func newProgressWriter(key string, total int64, hook *ProgressHook) *progressWriter {
	pw := &progressWriter{
		key:      key,
		total:    total,
		interval: 250 * time.Millisecond,
	}
	if hook != nil {
		pw.onProgress = hook.OnProgress
	}
	return pw
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += int64(n)
	now := time.Now()
	if pw.onProgress != nil && (pw.written == pw.total || now.Sub(pw.lastEmit) >= pw.interval) {
		pw.onProgress(pw.key, pw.written, pw.total)
		pw.lastEmit = now
	}
	return n, nil
}

/* -------------------- DOWNLOAD -------------------- */

func (c *S3Client) DownloadFile(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer out.Body.Close()

	total := aws.ToInt64(out.ContentLength)
	hook.start(key, total)

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	if _, err := io.Copy(f, io.TeeReader(out.Body, newProgressWriter(key, total, hook))); err != nil {
		return fmt.Errorf("failed to write to local file: %w", err)
	}
	hook.done(key, total, time.Since(start))
	return nil
}

/* -------------------- UPLOAD -------------------- */

func (c *S3Client) UploadFile(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat error: %w", err)
	}
	size := info.Size()

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("mime detection error: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind error: %w", err)
	}

	hook.start(key, size)
	start := time.Now()
	reader := io.TeeReader(file, newProgressWriter(key, size, hook))

	if size > multipartThreshold {
		_, err = manager.NewUploader(c.s3).Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        reader,
			ContentType: aws.String(mime.String()),
		})
	} else {
		_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          reader,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(mime.String()),
		})
	}
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	hook.done(key, size, time.Since(start))
	return nil
}
