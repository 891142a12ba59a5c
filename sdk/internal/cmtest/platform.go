// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

// Package cmtest runs an in-memory imitation of the platform REST API and its
// presigned storage for tests.
package cmtest

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"github.com/julienschmidt/httprouter"
	"github.com/klauspost/compress/gzip"
)

const (
	APIToken    = "api-token"
	AccessToken = "bearer-token"
)

type Platform struct {
	Server          *httptest.Server
	// PendingPolls is the number of RUNNING answers a job gives before it
	// reports its final state.
	PendingPolls    int
	// OmitETag drops the ETag header from presigned part uploads.
	OmitETag        bool
	// OmitResultLinks makes dataDump jobs succeed without result links.
	OmitResultLinks bool
	// PullFailure, when set, fails every dataPull job with this message.
	PullFailure     string

	mu       sync.Mutex
	seq      int
	projects map[string]map[string][]byte
	jobs     map[string]*fakeJob
	uploads  map[string]*fakeUpload

	singleUploads    int
	multipartUploads int
	partBodies       [][]byte
	requests         []string
}

type fakeJob struct {
	id      string
	typ     string
	status  string
	message string
	result  map[string]any
	polls   int
}

type fakeUpload struct {
	id       string
	project  string
	uploadID string
	parts    int
	single   []byte
	partData map[int][]byte
	etags    map[int]string
	complete bool
}

func NewPlatform(t *testing.T) *Platform {
	t.Helper()
	p := &Platform{
		projects: map[string]map[string][]byte{},
		jobs:     map[string]*fakeJob{},
		uploads:  map[string]*fakeUpload{},
	}

	router := httprouter.New()
	router.POST("/rest/oauth/token", p.token)
	router.POST("/rest/jobs", p.auth(p.submitJob))
	router.GET("/rest/jobs/:id", p.auth(p.jobStatus))
	router.GET("/rest/projects/:project/md/data/dump/:job", p.auth(p.dumpResult))
	router.POST("/rest/projects/:project/md/data/upload", p.auth(p.initUpload))
	router.POST("/rest/projects/:project/md/data/upload/:upload/complete", p.auth(p.completeUpload))
	router.PUT("/storage/:upload/:part", p.storagePut)

	p.Server = httptest.NewServer(p.record(router))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Platform) BaseURL() string {
	return p.Server.URL + "/rest"
}

func (p *Platform) Config() config.Config {
	return config.Config{
		Core: config.CoreConfig{
			BaseURL:  p.BaseURL(),
			APIToken: APIToken,
		},
	}
}

func (p *Platform) AddProject(project string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.projects[project]; !ok {
		p.projects[project] = map[string][]byte{}
	}
}

func (p *Platform) AddDataset(project, dataset string, csv []byte) {
	p.AddProject(project)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.projects[project][dataset] = append([]byte(nil), csv...)
}

func (p *Platform) Dataset(project, dataset string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.projects[project][dataset]
	return data, ok
}

func (p *Platform) SingleUploads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.singleUploads
}

func (p *Platform) MultipartUploads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.multipartUploads
}

// PartBodies returns the raw bodies received by the presigned part URLs.
func (p *Platform) PartBodies() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.partBodies...)
}

// Requests lists "METHOD path" for every request served.
func (p *Platform) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

/* -------------------- plumbing -------------------- */

func (p *Platform) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.requests = append(p.requests, r.Method+" "+r.URL.Path)
		p.mu.Unlock()
		next.ServeHTTP(rw, r)
	})
}

func (p *Platform) auth(h httprouter.Handle) httprouter.Handle {
	return func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if r.Header.Get("Authorization") != "Bearer "+AccessToken {
			writeError(rw, http.StatusUnauthorized, "Full authentication is required")
			return
		}
		h(rw, r, ps)
	}
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return prefix + strconv.Itoa(p.seq)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]any{"message": msg})
}

/* -------------------- handlers -------------------- */

func (p *Platform) token(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid body")
		return
	}
	if req.RefreshToken != APIToken {
		writeError(rw, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"access_token": AccessToken,
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func (p *Platform) submitJob(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Type      string          `json:"type"`
		ProjectID string          `json:"projectId"`
		Content   json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid body")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	datasets, ok := p.projects[req.ProjectID]
	if !ok {
		writeError(rw, http.StatusNotFound, fmt.Sprintf("Project %s not found", req.ProjectID))
		return
	}

	j := &fakeJob{id: p.nextID("job-"), typ: req.Type, status: "SUCCEEDED"}
	switch req.Type {
	case "dataDump":
		var c struct {
			Dataset string `json:"dataset"`
		}
		_ = json.Unmarshal(req.Content, &c)
		if _, ok := datasets[c.Dataset]; !ok {
			j.status, j.message = "FAILED", fmt.Sprintf("Dataset %s not found", c.Dataset)
			break
		}
		// the dump result is served under the job id, keyed by dataset
		p.uploads[j.id] = &fakeUpload{id: j.id, project: req.ProjectID, single: datasets[c.Dataset], complete: true}
		if p.OmitResultLinks {
			j.result = map[string]any{"links": []any{}}
			break
		}
		j.result = map[string]any{
			"links": []any{map[string]any{
				"rel":  "self",
				"href": "/rest/projects/" + req.ProjectID + "/md/data/dump/" + j.id,
			}},
		}
	case "dataPull":
		var c struct {
			Dataset string `json:"dataset"`
			Mode    string `json:"mode"`
			Type    string `json:"type"`
			Upload  string `json:"upload"`
		}
		_ = json.Unmarshal(req.Content, &c)
		if p.PullFailure != "" {
			j.status, j.message = "FAILED", p.PullFailure
			break
		}
		data, err := p.uploadedData(req.ProjectID, c.Upload)
		if err != nil {
			j.status, j.message = "FAILED", err.Error()
			break
		}
		if c.Mode == "incremental" {
			if prev, ok := datasets[c.Dataset]; ok {
				data = append(append([]byte(nil), prev...), dropHeader(data)...)
			}
		}
		datasets[c.Dataset] = data
	default:
		writeError(rw, http.StatusBadRequest, "unsupported job type "+req.Type)
		return
	}
	p.jobs[j.id] = j

	writeJSON(rw, http.StatusOK, map[string]any{
		"id":     j.id,
		"type":   j.typ,
		"status": "NOT_STARTED",
	})
}

func (p *Platform) jobStatus(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p.mu.Lock()
	defer p.mu.Unlock()

	j, ok := p.jobs[ps.ByName("id")]
	if !ok || r.URL.Query().Get("type") != j.typ {
		writeError(rw, http.StatusNotFound, "Job not found")
		return
	}

	body := map[string]any{"id": j.id, "type": j.typ}
	if j.polls < p.PendingPolls {
		j.polls++
		body["status"] = "RUNNING"
		writeJSON(rw, http.StatusOK, body)
		return
	}
	body["status"] = j.status
	if j.message != "" {
		body["message"] = j.message
	}
	if j.result != nil {
		body["result"] = j.result
	}
	writeJSON(rw, http.StatusOK, body)
}

func (p *Platform) dumpResult(rw http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	p.mu.Lock()
	u, ok := p.uploads[ps.ByName("job")]
	p.mu.Unlock()
	if !ok || u.project != ps.ByName("project") {
		writeError(rw, http.StatusNotFound, "Dump not found")
		return
	}
	rw.Header().Set("Content-Type", "text/csv")
	_, _ = rw.Write(u.single)
}

func (p *Platform) initUpload(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	project := ps.ByName("project")

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.projects[project]; !ok {
		writeError(rw, http.StatusNotFound, fmt.Sprintf("Project %s not found", project))
		return
	}

	u := &fakeUpload{
		id:       p.nextID("upload-"),
		project:  project,
		partData: map[int][]byte{},
		etags:    map[int]string{},
	}
	p.uploads[u.id] = u

	body := map[string]any{
		"id": u.id,
		"links": []any{map[string]any{
			"rel":  "self",
			"href": "/rest/projects/" + project + "/md/data/upload/" + u.id,
		}},
	}

	if raw := r.URL.Query().Get("parts"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(rw, http.StatusBadRequest, "invalid parts")
			return
		}
		u.parts = n
		u.uploadID = "mp-" + u.id
		urls := make([]string, n)
		for i := range urls {
			urls[i] = fmt.Sprintf("%s/storage/%s/%d", p.Server.URL, u.id, i+1)
		}
		body["uploadId"] = u.uploadID
		body["uploadUrlsEncoded"] = urls
		p.multipartUploads++
	} else {
		body["uploadUrlEncoded"] = fmt.Sprintf("%s/storage/%s/0", p.Server.URL, u.id)
		p.singleUploads++
	}
	writeJSON(rw, http.StatusOK, body)
}

func (p *Platform) storagePut(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if r.Header.Get("Authorization") != "" {
		writeError(rw, http.StatusBadRequest, "presigned requests must not carry credentials")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || int64(len(body)) != r.ContentLength {
		writeError(rw, http.StatusBadRequest, "content length mismatch")
		return
	}
	part, err := strconv.Atoi(ps.ByName("part"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid part")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.uploads[ps.ByName("upload")]
	if !ok {
		writeError(rw, http.StatusForbidden, "SignatureDoesNotMatch")
		return
	}
	sum := md5.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	if part == 0 {
		u.single = body
		u.complete = true
	} else {
		if part > u.parts {
			writeError(rw, http.StatusForbidden, "SignatureDoesNotMatch")
			return
		}
		u.partData[part] = body
		u.etags[part] = etag
		p.partBodies = append(p.partBodies, body)
	}
	if part == 0 || !p.OmitETag {
		rw.Header().Set("ETag", etag)
	}
	rw.WriteHeader(http.StatusOK)
}

func (p *Platform) completeUpload(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		ID        string `json:"id"`
		UploadID  string `json:"uploadId"`
		PartETags []struct {
			ETag       string `json:"eTag"`
			PartNumber int    `json:"partNumber"`
		} `json:"partETags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid body")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.uploads[ps.ByName("upload")]
	if !ok || u.project != ps.ByName("project") || req.ID != u.id || req.UploadID != u.uploadID {
		writeError(rw, http.StatusNotFound, "Upload not found")
		return
	}
	if len(req.PartETags) == 0 {
		writeError(rw, http.StatusBadRequest, "no parts")
		return
	}

	sort.Slice(req.PartETags, func(i, j int) bool { return req.PartETags[i].PartNumber < req.PartETags[j].PartNumber })
	var all bytes.Buffer
	for _, pe := range req.PartETags {
		if u.etags[pe.PartNumber] != pe.ETag {
			writeError(rw, http.StatusBadRequest, fmt.Sprintf("InvalidPart %d", pe.PartNumber))
			return
		}
		all.Write(u.partData[pe.PartNumber])
	}

	zr, err := gzip.NewReader(&all)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "parts are not gzip encoded")
		return
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "corrupt gzip stream")
		return
	}
	u.single = data
	u.complete = true
	writeJSON(rw, http.StatusOK, map[string]any{"id": u.id})
}

// uploadedData must be called with p.mu held.
func (p *Platform) uploadedData(project, href string) ([]byte, error) {
	prefix := "/rest/projects/" + project + "/md/data/upload/"
	if !strings.HasPrefix(href, prefix) {
		return nil, fmt.Errorf("invalid upload link %s", href)
	}
	u, ok := p.uploads[strings.TrimPrefix(href, prefix)]
	if !ok || !u.complete {
		return nil, fmt.Errorf("upload %s is not complete", href)
	}
	return u.single, nil
}

func dropHeader(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}
