// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3ConfigFromEnv(t *testing.T) config.S3Config {
	t.Helper()
	cfg := config.S3Config{
		AccessKey:   os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AccessToken: os.Getenv("AWS_SESSION_TOKEN"),
		Region:      os.Getenv("AWS_REGION"),
		EndpointURL: os.Getenv("AWS_ENDPOINT_URL"),
		Bucket:      os.Getenv("S3_BUCKET"),
	}
	if cfg.AccessKey == "" || cfg.Bucket == "" || cfg.Region == "" {
		t.Skip("Missing env vars (AWS_ACCESS_KEY_ID, AWS_REGION, S3_BUCKET), skipping integration test.")
	}
	return cfg
}

func TestS3ClientPutGet(t *testing.T) {
	cfg := s3ConfigFromEnv(t)
	ctx := context.Background()

	client, err := config.NewS3Client(ctx, cfg)
	require.NoError(t, err)

	key := fmt.Sprintf("odtransfer-test/%d.json", time.Now().UnixNano())
	loc, err := client.PutObject(ctx, cfg.Bucket, key, []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.NotEmpty(t, loc)

	data, err := client.GetObject(ctx, cfg.Bucket, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	_, err = client.GetObject(ctx, cfg.Bucket, key+".missing")
	require.ErrorIs(t, err, config.ErrObjectNotFound)
}
