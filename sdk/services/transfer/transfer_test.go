// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/internal/graphtest"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/transfer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testToken     = "test-token"
	testChunkSize = 1024 * 1024
)

func newTestService(t *testing.T) (*transfer.TransferService, *graphtest.Server) {
	t.Helper()

	srv := graphtest.NewServer(testToken)
	t.Cleanup(srv.Close)

	log := zaptest.NewLogger(t)
	httpc := config.NewHTTPCore(nil, config.GraphConfig{
		BaseURL:     srv.BaseURL(),
		DrivePath:   config.DefaultDrivePath,
		AccessToken: testToken,
	}, log)
	d := drive.NewDriveServiceWithHTTP(httpc, testChunkSize, log)
	return transfer.NewTransferServiceWithDrive(d, 2, log), srv
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// simulationTree lays out two locations plus files that discovery must ignore.
//
//	C.12580/permanent_loss.Rdata  (2 KiB)
//	C.12580/reduced.Rdata         (3 KiB)
//	C.12580/notes.txt
//	C.999/permanent_loss.Rdata    (1 KiB)
//	README.md
func simulationTree(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "C.12580", "permanent_loss.Rdata"), pattern(2048))
	writeFile(t, filepath.Join(base, "C.12580", "reduced.Rdata"), pattern(3072))
	writeFile(t, filepath.Join(base, "C.12580", "notes.txt"), []byte("ignored"))
	writeFile(t, filepath.Join(base, "C.999", "permanent_loss.Rdata"), pattern(1024))
	writeFile(t, filepath.Join(base, "README.md"), []byte("ignored"))
	return base
}
