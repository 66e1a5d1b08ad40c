// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer_test

import (
	"path/filepath"
	"testing"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(files []transfer.SimulationFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Key())
	}
	return out
}

func TestDiscover(t *testing.T) {
	base := simulationTree(t)

	files, err := transfer.Discover(base, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"C.12580_permanent_loss", "C.12580_reduced", "C.999_permanent_loss"}, keys(files))

	first := files[0]
	assert.Equal(t, "C.12580", first.Location)
	assert.Equal(t, "permanent_loss", first.Scenario)
	assert.Equal(t, "C.12580/permanent_loss.Rdata", first.RelativePath)
	assert.Equal(t, filepath.Join(base, "C.12580", "permanent_loss.Rdata"), first.LocalPath)
	assert.Equal(t, int64(2048), first.Size)
	assert.NotEmpty(t, first.ContentType)
}

func TestDiscoverFilters(t *testing.T) {
	base := simulationTree(t)

	files, err := transfer.Discover(base, []string{"C.12580"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"C.12580_permanent_loss", "C.12580_reduced"}, keys(files))

	files, err = transfer.Discover(base, nil, []string{"permanent_loss"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"C.12580_permanent_loss", "C.999_permanent_loss"}, keys(files))

	files, err = transfer.Discover(base, []string{"unknown"}, nil, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverCustomExtension(t *testing.T) {
	base := simulationTree(t)

	files, err := transfer.Discover(base, nil, nil, ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"C.12580_notes"}, keys(files))
}

func TestDiscoverMissingBaseDir(t *testing.T) {
	_, err := transfer.Discover(filepath.Join(t.TempDir(), "missing"), nil, nil, "")
	require.Error(t, err)
}
