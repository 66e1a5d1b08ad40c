// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"sigs.k8s.io/yaml"
)

const generatedAtLayout = "2006-01-02 15:04:05"

// Entry is the published state of one simulation file.
type Entry struct {
	Location    string `json:"location"`
	Scenario    string `json:"scenario"`
	Filename    string `json:"filename"`
	SharingLink string `json:"sharing_link,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// Manifest collects the outcome of a publish run. Record is safe for concurrent use.
type Manifest struct {
	mu sync.Mutex

	FormatVersion string           `json:"format_version"`
	GeneratedAt   string           `json:"generated_at"`
	ModelVersion  string           `json:"model_version"`
	Simulations   map[string]Entry `json:"simulations"`
}

func NewManifest(modelVersion string, now time.Time) *Manifest {
	return &Manifest{
		FormatVersion: FormatVersion,
		GeneratedAt:   now.Format(generatedAtLayout),
		ModelVersion:  modelVersion,
		Simulations:   map[string]Entry{},
	}
}

// Record stores file under its key. link is the download link, empty when links are disabled.
func (m *Manifest) Record(file SimulationFile, item *drive.Item, link string) {
	e := Entry{
		Location:    file.Location,
		Scenario:    file.Scenario,
		Filename:    filenamePrefix + file.RelativePath,
		SharingLink: link,
		Size:        file.Size,
		ContentType: file.ContentType,
	}
	if item != nil {
		e.ItemID = item.ID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Simulations[file.Key()] = e
}

// Merge copies entries of other that m does not have yet.
func (m *Manifest) Merge(other *Manifest) {
	if other == nil {
		return
	}
	other.mu.Lock()
	entries := make(map[string]Entry, len(other.Simulations))
	for k, v := range other.Simulations {
		entries[k] = v
	}
	other.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		if _, ok := m.Simulations[k]; !ok {
			m.Simulations[k] = v
		}
	}
}

func (m *Manifest) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Simulations[key]
	return ok
}

func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Simulations)
}

// Keys returns the recorded keys in order.
func (m *Manifest) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Simulations))
	for k := range m.Simulations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Encode renders the manifest as YAML for .yaml/.yml paths and as indented JSON otherwise.
func (m *Manifest) Encode(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if isYAML(path) {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert manifest to yaml: %w", err)
		}
	}
	return data, nil
}

// Save writes the manifest to path, creating parent directories.
func (m *Manifest) Save(path string) error {
	data, err := m.Encode(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if isYAML(path) {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("invalid yaml manifest: %w", err)
		}
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Simulations == nil {
		m.Simulations = map[string]Entry{}
	}
	return m, nil
}

func manifestContentType(path string) string {
	if isYAML(path) {
		return "application/yaml"
	}
	return "application/json"
}
