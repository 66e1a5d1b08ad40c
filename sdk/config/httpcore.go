// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const userAgent = "odtransfer/1.0"

// RequestBody is the payload of a request: JSONBody, BytesBody or NoBody.
type RequestBody interface {
	contentType() string
	payload() ([]byte, error)
}

// JSONBody marshals Value as application/json.
type JSONBody struct {
	Value any
}

func (JSONBody) contentType() string { return "application/json" }

func (b JSONBody) payload() ([]byte, error) {
	data, err := json.Marshal(b.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

// BytesBody is sent verbatim as application/octet-stream.
type BytesBody []byte

func (BytesBody) contentType() string { return "application/octet-stream" }

func (b BytesBody) payload() ([]byte, error) {
	if b == nil {
		return []byte{}, nil
	}
	return b, nil
}

type noBody struct{}

func (noBody) contentType() string      { return "" }
func (noBody) payload() ([]byte, error) { return nil, nil }

// NoBody sends no payload at all.
var NoBody RequestBody = noBody{}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("invalid json (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Message extracts the API error message from the body, falling back to the status text.
func (r *Response) Message() string {
	var apiErr struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(r.Body, &apiErr) == nil && apiErr.Error.Code != "" {
		return fmt.Sprintf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
	}
	return http.StatusText(r.StatusCode)
}

// CoreHTTP issues requests against the drive API. Targets are either paths relative to
// BaseURL+DrivePath (sent with the bearer token) or absolute URLs used verbatim (sent
// without it). A non-2xx status is returned as a Response, not as an error.
type CoreHTTP interface {
	BuildURL(target string) string
	Get(ctx context.Context, target string) (*Response, error)
	Post(ctx context.Context, target string, body RequestBody) (*Response, error)
	Put(ctx context.Context, target string, body RequestBody, header http.Header) (*Response, error)
	Delete(ctx context.Context, target string) (*Response, error)
}

type httpCore struct {
	authClient  *http.Client
	plainClient *http.Client
	graphConfig GraphConfig
	baseHeader  http.Header
	log         *zap.Logger
}

func NewHTTPCore(httpClient *http.Client, graphConfig GraphConfig, log *zap.Logger) CoreHTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: graphConfig.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if graphConfig.RetryDelay <= 0 {
		graphConfig.RetryDelay = DefaultRetryDelay
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	authClient := &http.Client{
		Timeout: httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: graphConfig.AccessToken,
				TokenType:   "Bearer",
			}),
			Base: base,
		},
	}

	baseHeader := http.Header{}
	baseHeader.Set("Accept", "application/json")
	baseHeader.Set("User-Agent", userAgent)

	return &httpCore{
		authClient:  authClient,
		plainClient: httpClient,
		graphConfig: graphConfig,
		baseHeader:  baseHeader,
		log:         log.Named("http"),
	}
}

func isAbsolute(target string) bool {
	return strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "http://")
}

func (httpCore *httpCore) BuildURL(target string) string {
	if isAbsolute(target) {
		return target
	}
	base := strings.TrimSuffix(httpCore.graphConfig.BaseURL, "/")
	drive := "/" + strings.Trim(httpCore.graphConfig.DrivePath, "/")
	if drive == "/" {
		drive = ""
	}
	return base + drive + "/" + strings.TrimPrefix(target, "/")
}

func (httpCore *httpCore) Get(ctx context.Context, target string) (*Response, error) {
	return httpCore.do(ctx, http.MethodGet, target, NoBody, nil)
}

func (httpCore *httpCore) Post(ctx context.Context, target string, body RequestBody) (*Response, error) {
	return httpCore.do(ctx, http.MethodPost, target, body, nil)
}

func (httpCore *httpCore) Put(ctx context.Context, target string, body RequestBody, header http.Header) (*Response, error) {
	return httpCore.do(ctx, http.MethodPut, target, body, header)
}

func (httpCore *httpCore) Delete(ctx context.Context, target string) (*Response, error) {
	return httpCore.do(ctx, http.MethodDelete, target, NoBody, nil)
}

func (httpCore *httpCore) do(ctx context.Context, method, target string, body RequestBody, header http.Header) (*Response, error) {
	if body == nil {
		body = NoBody
	}
	data, err := body.payload()
	if err != nil {
		return nil, err
	}
	if declared := header.Get("Content-Length"); declared != "" {
		n, err := strconv.ParseInt(declared, 10, 64)
		if err != nil || n != int64(len(data)) {
			return nil, fmt.Errorf("declared content length %q does not match body length %d", declared, len(data))
		}
	}

	url := httpCore.BuildURL(target)
	client := httpCore.plainClient
	if !isAbsolute(target) {
		client = httpCore.authClient
	}

	backoff := retry.WithMaxRetries(uint64(httpCore.graphConfig.MaxRetries),
		retry.NewExponential(httpCore.graphConfig.RetryDelay))

	var resp *Response
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp = nil
		r, err := httpCore.roundTrip(ctx, client, method, url, data, body.contentType(), header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		resp = r
		if !retryableStatus(r.StatusCode) {
			return nil
		}
		if wait := retryAfter(r.Header); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
		return retry.RetryableError(fmt.Errorf("%s %s: %s", method, redact(url), r.Message()))
	})
	// retries exhausted on a throttling status: hand the last response to the caller
	if err != nil && (resp == nil || ctx.Err() != nil) {
		return nil, err
	}
	return resp, nil
}

func (httpCore *httpCore) roundTrip(ctx context.Context, client *http.Client, method, url string, data []byte, contentType string, header http.Header) (*Response, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header = httpCore.baseHeader.Clone()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("client-request-id", uuid.NewString())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		httpCore.log.Debug("request failed", zap.String("method", method), zap.String("url", redact(url)), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	httpCore.log.Debug("request",
		zap.String("method", method),
		zap.String("url", redact(url)),
		zap.Int("status", resp.StatusCode),
		zap.Int("sent", len(data)),
		zap.Duration("took", time.Since(start)),
	)
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// session URLs carry their credentials in the query string
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i] + "?…"
	}
	return url
}
