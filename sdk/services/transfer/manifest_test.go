// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile(location, scenario string) transfer.SimulationFile {
	return transfer.SimulationFile{
		Location:     location,
		Scenario:     scenario,
		RelativePath: location + "/" + scenario + ".Rdata",
		Size:         42,
		ContentType:  "application/octet-stream",
	}
}

func TestManifestRecord(t *testing.T) {
	m := transfer.NewManifest("v2", time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC))
	assert.Equal(t, "1.0", m.FormatVersion)
	assert.Equal(t, "2025-03-01 10:20:30", m.GeneratedAt)
	assert.Equal(t, "v2", m.ModelVersion)

	m.Record(sampleFile("C.1", "base"), &drive.Item{ID: "I1"}, "https://share/x?download=1")

	e := m.Simulations["C.1_base"]
	assert.Equal(t, "C.1", e.Location)
	assert.Equal(t, "base", e.Scenario)
	assert.Equal(t, "prerun/C.1/base.Rdata", e.Filename)
	assert.Equal(t, "https://share/x?download=1", e.SharingLink)
	assert.Equal(t, "I1", e.ItemID)
	assert.Equal(t, int64(42), e.Size)
}

func TestManifestRecordConcurrently(t *testing.T) {
	m := transfer.NewManifest("", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(sampleFile("L", string(rune('a'+i%26))+"x"), nil, "")
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, m.Len())
}

func TestManifestSaveJSON(t *testing.T) {
	m := transfer.NewManifest("v1", time.Now())
	m.Record(sampleFile("C.1", "base"), &drive.Item{ID: "I1"}, "https://share/x?download=1")

	path := filepath.Join(t.TempDir(), "nested", "dir", "links.json")
	require.NoError(t, m.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.0", doc["format_version"])
	assert.Equal(t, "v1", doc["model_version"])
	assert.Contains(t, string(raw), "\n  \"format_version\"")

	sims := doc["simulations"].(map[string]any)
	entry := sims["C.1_base"].(map[string]any)
	assert.Equal(t, "prerun/C.1/base.Rdata", entry["filename"])
	assert.Equal(t, "https://share/x?download=1", entry["sharing_link"])
}

func TestManifestSaveAndLoadYAML(t *testing.T) {
	m := transfer.NewManifest("v1", time.Now())
	m.Record(sampleFile("C.1", "base"), &drive.Item{ID: "I1"}, "https://share/x?download=1")
	m.Record(sampleFile("C.2", "base"), &drive.Item{ID: "I2"}, "")

	path := filepath.Join(t.TempDir(), "links.yaml")
	require.NoError(t, m.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "simulations:")

	loaded, err := transfer.LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.FormatVersion, loaded.FormatVersion)
	assert.Equal(t, m.GeneratedAt, loaded.GeneratedAt)
	assert.Equal(t, []string{"C.1_base", "C.2_base"}, loaded.Keys())
	assert.Equal(t, m.Simulations["C.1_base"], loaded.Simulations["C.1_base"])
}

func TestManifestMergeKeepsNewerEntries(t *testing.T) {
	old := transfer.NewManifest("v1", time.Now())
	old.Record(sampleFile("C.1", "base"), &drive.Item{ID: "old"}, "")
	old.Record(sampleFile("C.2", "base"), &drive.Item{ID: "kept"}, "")

	m := transfer.NewManifest("v2", time.Now())
	m.Record(sampleFile("C.1", "base"), &drive.Item{ID: "new"}, "")
	m.Merge(old)
	m.Merge(nil)

	assert.Equal(t, "new", m.Simulations["C.1_base"].ItemID)
	assert.Equal(t, "kept", m.Simulations["C.2_base"].ItemID)
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := transfer.LoadManifest(filepath.Join(t.TempDir(), "none.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
