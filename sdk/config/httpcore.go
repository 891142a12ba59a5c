// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

type CoreHTTP interface {
	BuildURL(path string, params map[string]string) string
	ResolveLink(href string) string
	Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error)
	Stream(ctx context.Context, url string, w io.Writer) (int64, error)
	PutPresigned(ctx context.Context, url string, body io.Reader, size int64, contentType string) (http.Header, error)
	SetAccessToken(token string)
}

// APIError is returned for every non-2xx answer of the platform or of a
// presigned storage URL.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("core responded with: %s - %s", e.Status, e.Message)
	}
	return fmt.Sprintf("core responded with: %s", e.Status)
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
	var m map[string]any
	if json.Unmarshal(body, &m) == nil {
		if msg, ok := m["message"].(string); ok {
			apiErr.Message = msg
		}
	}
	return apiErr
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

type httpCore struct {
	httpClient *http.Client
	coreConfig CoreConfig

	mu          sync.RWMutex
	accessToken string
}

func NewHTTPCore(httpClient *http.Client, coreConfig CoreConfig) CoreHTTP {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &httpCore{
		httpClient:  httpClient,
		coreConfig:  coreConfig,
		accessToken: coreConfig.AccessToken,
	}
}

func (httpCore *httpCore) SetAccessToken(token string) {
	httpCore.mu.Lock()
	defer httpCore.mu.Unlock()
	httpCore.accessToken = token
}

func (httpCore *httpCore) token() string {
	httpCore.mu.RLock()
	defer httpCore.mu.RUnlock()
	return httpCore.accessToken
}

func (httpCore *httpCore) BuildURL(path string, params map[string]string) string {
	base := strings.TrimSuffix(httpCore.coreConfig.baseURL(), "/")
	base += "/" + strings.TrimPrefix(path, "/")

	query := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		query.Set(k, v)
	}
	if len(query) > 0 {
		base += "?" + query.Encode()
	}
	return base
}

// ResolveLink turns a link returned by the API into an absolute URL. Links are
// rooted at /rest, which the base URL usually ends with already.
func (httpCore *httpCore) ResolveLink(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := strings.TrimSuffix(httpCore.coreConfig.baseURL(), "/")
	if strings.HasSuffix(base, "/rest") && (href == "/rest" || strings.HasPrefix(href, "/rest/")) {
		href = strings.TrimPrefix(href, "/rest")
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

func (httpCore *httpCore) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if tok := httpCore.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (httpCore *httpCore) Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := httpCore.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpCore.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, rerr := io.ReadAll(resp.Body)
	if !isSuccess(resp.StatusCode) {
		return b, resp.StatusCode, newAPIError(resp, b)
	}
	return b, resp.StatusCode, rerr
}

// Stream performs an authenticated GET and copies the response body into w.
func (httpCore *httpCore) Stream(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := httpCore.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := httpCore.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		b, _ := io.ReadAll(resp.Body)
		return 0, newAPIError(resp, b)
	}
	return io.Copy(w, resp.Body)
}

// PutPresigned uploads body to a presigned storage URL. The URL carries its own
// signature, so no Authorization header is sent.
func (httpCore *httpCore) PutPresigned(ctx context.Context, url string, body io.Reader, size int64, contentType string) (http.Header, error) {
	if size == 0 {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := httpCore.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if !isSuccess(resp.StatusCode) {
		return nil, newAPIError(resp, b)
	}
	return resp.Header, nil
}
