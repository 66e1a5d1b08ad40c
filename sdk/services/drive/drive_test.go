// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive_test

import (
	"testing"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/internal/graphtest"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"go.uber.org/zap/zaptest"
)

const testToken = "test-token"

func newTestService(t *testing.T, chunkSize int64) (*drive.DriveService, *graphtest.Server) {
	t.Helper()

	srv := graphtest.NewServer(testToken)
	t.Cleanup(srv.Close)

	log := zaptest.NewLogger(t)
	httpc := config.NewHTTPCore(nil, config.GraphConfig{
		BaseURL:     srv.BaseURL(),
		DrivePath:   config.DefaultDrivePath,
		AccessToken: testToken,
	}, log)
	return drive.NewDriveServiceWithHTTP(httpc, chunkSize, log), srv
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
