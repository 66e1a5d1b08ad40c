// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"testing"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/stretchr/testify/assert"
)

func TestWithDefaults(t *testing.T) {
	c := config.Config{}.WithDefaults()

	assert.Equal(t, config.DefaultBaseURL, c.Graph.BaseURL)
	assert.Equal(t, config.DefaultDrivePath, c.Graph.DrivePath)
	assert.Equal(t, int64(config.DefaultChunkSize), c.Transfer.ChunkSize)
	assert.Equal(t, config.DefaultWorkers, c.Transfer.Workers)
	assert.NoError(t, c.Transfer.Validate())
	assert.Error(t, c.Graph.Validate(), "token is still missing")
}

func TestTransferValidate(t *testing.T) {
	cases := []struct {
		cfg config.TransferConfig
		ok  bool
	}{
		{config.TransferConfig{ChunkSize: 3276800, Workers: 1}, true},
		{config.TransferConfig{ChunkSize: config.MaxChunkSize, Workers: 8}, true},
		{config.TransferConfig{ChunkSize: 0, Workers: 1}, false},
		{config.TransferConfig{ChunkSize: 1000, Workers: 1}, false},
		{config.TransferConfig{ChunkSize: config.MaxChunkSize + config.ChunkSizeMultiple, Workers: 1}, false},
		{config.TransferConfig{ChunkSize: 3276800, Workers: 0}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok {
			assert.NoError(t, err, "%+v", tc.cfg)
		} else {
			assert.Error(t, err, "%+v", tc.cfg)
		}
	}
}
