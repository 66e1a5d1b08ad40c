// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Discover lists <baseDir>/<location>/<scenario><ext> files. Empty filters match everything.
// The result is sorted by location then scenario.
func Discover(baseDir string, locations, scenarios []string, ext string) ([]SimulationFile, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}

	wantLocation := filter(locations)
	wantScenario := filter(scenarios)

	var files []SimulationFile
	for _, loc := range entries {
		if !loc.IsDir() || !wantLocation(loc.Name()) {
			continue
		}
		locPath := filepath.Join(baseDir, loc.Name())
		items, err := os.ReadDir(locPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read location %s: %w", loc.Name(), err)
		}
		for _, it := range items {
			if it.IsDir() || !strings.HasSuffix(it.Name(), ext) {
				continue
			}
			scenario := strings.TrimSuffix(it.Name(), ext)
			if scenario == "" || !wantScenario(scenario) {
				continue
			}

			localPath := filepath.Join(locPath, it.Name())
			info, err := it.Info()
			if err != nil {
				return nil, fmt.Errorf("stat error: %w", err)
			}
			contentType := "application/octet-stream"
			if mt, err := mimetype.DetectFile(localPath); err == nil {
				contentType = mt.String()
			}

			files = append(files, SimulationFile{
				Location:     loc.Name(),
				Scenario:     scenario,
				LocalPath:    localPath,
				RelativePath: loc.Name() + "/" + it.Name(),
				Size:         info.Size(),
				ContentType:  contentType,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Location != files[j].Location {
			return files[i].Location < files[j].Location
		}
		return files[i].Scenario < files[j].Scenario
	})
	return files, nil
}

func filter(values []string) func(string) bool {
	if len(values) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(s string) bool {
		_, ok := set[s]
		return ok
	}
}
