// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type seenRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []seenRequest
	statuses []int
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, seenRequest{method: req.Method, path: req.URL.Path, header: req.Header.Clone(), body: body})
	status := http.StatusOK
	if len(r.statuses) > 0 {
		status = r.statuses[0]
		r.statuses = r.statuses[1:]
	}
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 400 {
		_, _ = io.WriteString(w, `{"error":{"code":"itemNotFound","message":"gone"}}`)
		return
	}
	_, _ = io.WriteString(w, `{"id":"42"}`)
}

func (r *recorder) seen() []seenRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]seenRequest(nil), r.requests...)
}

func newCore(t *testing.T, rec *recorder, maxRetries int) (config.CoreHTTP, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(srv.Close)
	core := config.NewHTTPCore(nil, config.GraphConfig{
		BaseURL:     srv.URL + "/v1.0",
		DrivePath:   "/me/drive",
		AccessToken: "tok",
		MaxRetries:  maxRetries,
		RetryDelay:  time.Millisecond,
	}, zaptest.NewLogger(t))
	return core, srv
}

func TestBuildURL(t *testing.T) {
	core := config.NewHTTPCore(nil, config.GraphConfig{BaseURL: "https://graph.test/v1.0/", DrivePath: "me/drive/"}, nil)

	assert.Equal(t, "https://graph.test/v1.0/me/drive/root:/a/b", core.BuildURL("root:/a/b"))
	assert.Equal(t, "https://graph.test/v1.0/me/drive/items/1/children", core.BuildURL("/items/1/children"))
	assert.Equal(t, "https://upload.test/s/1?tempauth=x", core.BuildURL("https://upload.test/s/1?tempauth=x"))
}

func TestBearerTokenOnlyOnAPITargets(t *testing.T) {
	rec := &recorder{}
	core, srv := newCore(t, rec, 0)
	ctx := context.Background()

	_, err := core.Get(ctx, "root:/a")
	require.NoError(t, err)
	_, err = core.Put(ctx, srv.URL+"/upload/1?tempauth=x", config.BytesBody("abc"), nil)
	require.NoError(t, err)

	seen := rec.seen()
	require.Len(t, seen, 2)
	assert.Equal(t, "/v1.0/me/drive/root:/a", seen[0].path)
	assert.Equal(t, "Bearer tok", seen[0].header.Get("Authorization"))
	assert.Equal(t, "/upload/1", seen[1].path)
	assert.Empty(t, seen[1].header.Get("Authorization"))
}

func TestPerCallHeadersDoNotLeak(t *testing.T) {
	rec := &recorder{}
	core, _ := newCore(t, rec, 0)
	ctx := context.Background()

	extra := http.Header{}
	extra.Set("Content-Range", "bytes 0-2/3")
	_, err := core.Put(ctx, "items/1", config.BytesBody("abc"), extra)
	require.NoError(t, err)
	_, err = core.Get(ctx, "items/1")
	require.NoError(t, err)

	seen := rec.seen()
	require.Len(t, seen, 2)
	assert.Equal(t, "bytes 0-2/3", seen[0].header.Get("Content-Range"))
	assert.Empty(t, seen[1].header.Get("Content-Range"))
	assert.NotEmpty(t, seen[0].header.Get("client-request-id"))
	assert.NotEqual(t, seen[0].header.Get("client-request-id"), seen[1].header.Get("client-request-id"))
	assert.Equal(t, "application/json", seen[1].header.Get("Accept"))
}

func TestBodyVariants(t *testing.T) {
	rec := &recorder{}
	core, _ := newCore(t, rec, 0)
	ctx := context.Background()

	_, err := core.Post(ctx, "items/1/children", config.JSONBody{Value: map[string]any{"name": "a"}})
	require.NoError(t, err)
	_, err = core.Put(ctx, "items/1:/f:/content", config.BytesBody{0x01, 0x02}, nil)
	require.NoError(t, err)
	_, err = core.Delete(ctx, "items/1")
	require.NoError(t, err)

	seen := rec.seen()
	require.Len(t, seen, 3)
	assert.Equal(t, "application/json", seen[0].header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"a"}`, string(seen[0].body))
	assert.Equal(t, "application/octet-stream", seen[1].header.Get("Content-Type"))
	assert.Equal(t, []byte{0x01, 0x02}, seen[1].body)
	assert.Equal(t, http.MethodDelete, seen[2].method)
	assert.Empty(t, seen[2].header.Get("Content-Type"))
	assert.Empty(t, seen[2].body)
}

func TestErrorStatusIsAResponse(t *testing.T) {
	rec := &recorder{statuses: []int{http.StatusNotFound}}
	core, _ := newCore(t, rec, 2)

	resp, err := core.Get(context.Background(), "root:/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "itemNotFound: gone", resp.Message())
	assert.Len(t, rec.seen(), 1, "404 is not retried")
}

func TestThrottledRequestsAreRetried(t *testing.T) {
	rec := &recorder{statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}}
	core, _ := newCore(t, rec, 2)

	resp, err := core.Get(context.Background(), "root:/a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var item struct{ ID string }
	require.NoError(t, resp.DecodeJSON(&item))
	assert.Equal(t, "42", item.ID)
	assert.Len(t, rec.seen(), 3)
}

func TestRetriesAreBounded(t *testing.T) {
	rec := &recorder{statuses: []int{503, 503, 503, 503}}
	core, _ := newCore(t, rec, 1)

	resp, err := core.Get(context.Background(), "root:/a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Len(t, rec.seen(), 2)
}

func TestDeclaredContentLengthMustMatch(t *testing.T) {
	rec := &recorder{}
	core, _ := newCore(t, rec, 0)

	extra := http.Header{}
	extra.Set("Content-Length", "5")
	_, err := core.Put(context.Background(), "items/1", config.BytesBody("abc"), extra)
	require.Error(t, err)
	assert.Empty(t, rec.seen())
}
