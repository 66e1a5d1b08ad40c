// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultManifestKey = "manifest.json"

// Publish runs:
// - discovery of <BaseDir>/<location>/<scenario><ext>
// - per location (in parallel, up to workers): resolve <RemoteDir>/<location>
// - per file: upload, then an anonymous view link unless NoLinks
// - manifest save to Output and optional S3 mirror
//
// A failing file or location is reported in PublishResult.Failures and never stops the others.
func (s *TransferService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.BaseDir == "" {
		return nil, errors.New("missing required base directory")
	}

	files, err := Discover(req.BaseDir, req.Locations, req.Scenarios, req.Extension)
	if err != nil {
		return nil, err
	}
	s.log.Info("discovered simulation files", zap.String("base", req.BaseDir), zap.Int("count", len(files)))

	res := &PublishResult{Files: files, Manifest: NewManifest(req.ModelVersion, s.now())}
	if len(files) == 0 {
		s.log.Warn("no simulation files found")
		return res, nil
	}

	if req.DryRun {
		for _, f := range files {
			s.log.Info("would process", zap.String("file", f.RelativePath), zap.String("size", utils.HumanSize(f.Size)))
		}
		return res, nil
	}

	var existing *Manifest
	if req.SkipExisting && req.Output != "" {
		existing, err = LoadManifest(req.Output)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			existing = nil
		}
	}

	var order []string
	byLocation := map[string][]SimulationFile{}
	var total int64
	for _, f := range files {
		if _, ok := byLocation[f.Location]; !ok {
			order = append(order, f.Location)
		}
		byLocation[f.Location] = append(byLocation[f.Location], f)
		total += f.Size
	}

	run := &publishRun{
		req:      req,
		existing: existing,
		res:      res,
		progress: utils.NewProgress(s.log, len(files), total),
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, loc := range order {
		locFiles := byLocation[loc]
		g.Go(func() error {
			s.publishLocation(ctx, run, loc, locFiles)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Manifest.Merge(existing)
	s.log.Info("publish finished",
		zap.Int("published", res.Published),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", len(res.Failures)),
	)

	if req.Output != "" {
		if err := res.Manifest.Save(req.Output); err != nil {
			return res, err
		}
		s.log.Info("manifest saved", zap.String("path", req.Output), zap.Int("entries", res.Manifest.Len()))
	}

	if s.s3 != nil {
		loc, err := s.mirrorManifest(ctx, res.Manifest, req.Output)
		if err != nil {
			return res, err
		}
		res.ManifestLocation = loc
	}
	return res, nil
}

type publishRun struct {
	req      PublishRequest
	existing *Manifest
	progress *utils.Progress

	mu  sync.Mutex
	res *PublishResult
}

func (r *publishRun) fail(location, scenario string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Failures = append(r.res.Failures, Failure{Location: location, Scenario: scenario, Err: err})
}

func (r *publishRun) count(published bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if published {
		r.res.Published++
	} else {
		r.res.Skipped++
	}
}

func (s *TransferService) publishLocation(ctx context.Context, run *publishRun, location string, files []SimulationFile) {
	log := s.log.With(zap.String("location", location))

	remote := drive.ParseRemotePath(run.req.RemoteDir).Join(location)
	container, err := s.drive.Resolve(ctx, remote)
	if err != nil {
		log.Error("failed to create folder for location", zap.Error(err))
		run.fail(location, "", err)
		for _, f := range files {
			run.progress.Add(f.Size)
		}
		return
	}

	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		if run.existing != nil && run.existing.Has(f.Key()) {
			log.Info("already published, skipping", zap.String("file", f.RelativePath))
			run.count(false)
			run.progress.Add(f.Size)
			continue
		}

		if err := s.publishFile(ctx, run, container, f); err != nil {
			log.Error("failed to publish", zap.String("file", f.RelativePath), zap.Error(err))
			run.fail(location, f.Scenario, err)
		} else {
			log.Info("published", zap.String("file", f.RelativePath))
			run.count(true)
		}
		run.progress.Add(f.Size)
	}
}

func (s *TransferService) publishFile(ctx context.Context, run *publishRun, container drive.NodeRef, f SimulationFile) error {
	fh, err := os.Open(f.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer fh.Close()

	item, err := s.drive.Upload(ctx, container, filepath.Base(f.LocalPath), fh, f.Size)
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.RelativePath, err)
	}

	link := ""
	if !run.req.NoLinks {
		perm, err := s.drive.CreateLink(ctx, item.ID, drive.AnonymousView)
		if err != nil {
			return fmt.Errorf("sharing link for %s: %w", f.RelativePath, err)
		}
		link = drive.DownloadURL(perm.Link.WebURL)
	}

	run.res.Manifest.Record(f, item, link)
	return nil
}

func (s *TransferService) mirrorManifest(ctx context.Context, m *Manifest, output string) (string, error) {
	key := s.s3Conf.Key
	if key == "" {
		key = defaultManifestKey
		if output != "" {
			key = filepath.Base(output)
		}
	}
	data, err := m.Encode(key)
	if err != nil {
		return "", err
	}
	loc, err := s.s3.PutObject(ctx, s.s3Conf.Bucket, key, data, manifestContentType(key))
	if err != nil {
		return "", fmt.Errorf("mirror manifest: %w", err)
	}
	s.log.Info("manifest mirrored", zap.String("location", loc))
	return loc, nil
}
