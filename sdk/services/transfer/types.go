// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

const (
	DefaultExtension = ".Rdata"
	FormatVersion    = "1.0"
	filenamePrefix   = "prerun/"
)

// -------- Discovery --------

// SimulationFile is one local result file, found as <base>/<location>/<scenario><ext>.
type SimulationFile struct {
	Location     string `json:"location"      yaml:"location"`
	Scenario     string `json:"scenario"      yaml:"scenario"`
	LocalPath    string `json:"local_path"    yaml:"local_path"`
	RelativePath string `json:"relative_path" yaml:"relative_path"`
	Size         int64  `json:"size"          yaml:"size"`
	ContentType  string `json:"content_type"  yaml:"content_type"`
}

// Key identifies the file in the manifest.
func (f SimulationFile) Key() string {
	return f.Location + "_" + f.Scenario
}

// -------- Publish --------

type PublishRequest struct {
	BaseDir      string   // local root holding one directory per location (required)
	RemoteDir    string   // drive folder receiving <RemoteDir>/<location>/<file>
	ModelVersion string   // copied into the manifest
	Output       string   // manifest path (.json, .yaml or .yml); empty skips saving
	Locations    []string // optional filter
	Scenarios    []string // optional filter
	Extension    string   // default DefaultExtension
	DryRun       bool
	NoLinks      bool
	SkipExisting bool
}

// Failure is a file or location that could not be published.
type Failure struct {
	Location string
	Scenario string // empty when the whole location failed
	Err      error
}

type PublishResult struct {
	Files     []SimulationFile // everything discovered (the plan, in dry-run mode)
	Published int
	Skipped   int
	Failures  []Failure
	Manifest  *Manifest
	// ManifestLocation is the S3 location of the mirrored manifest, if any.
	ManifestLocation string
}
