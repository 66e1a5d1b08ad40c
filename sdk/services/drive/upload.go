// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Upload stores size bytes of src as name inside container, choosing a single request
// below DirectUploadLimit and an upload session otherwise.
func (s *DriveService) Upload(ctx context.Context, container NodeRef, name string, src io.ReaderAt, size int64) (*Item, error) {
	if name == "" {
		return nil, errors.New("missing remote file name")
	}

	strategy := ChooseStrategy(size)
	s.log.Info("uploading", zap.String("name", name), zap.Int64("size", size), zap.Stringer("strategy", strategy))

	if strategy == StrategyChunked {
		return s.UploadChunked(ctx, container, name, src, size, s.chunkSize)
	}

	data := make([]byte, size)
	n, err := src.ReadAt(data, 0)
	if int64(n) != size {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, ErrRangeMismatch.New("upload %q: read %d of %d bytes", name, n, size)
		}
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return s.UploadDirect(ctx, container, name, data)
}

// UploadFile resolves remoteDir and uploads localPath into it under its base name.
func (s *DriveService) UploadFile(ctx context.Context, remoteDir RemotePath, localPath string) (*Item, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat error: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", localPath)
	}

	container, err := s.Resolve(ctx, remoteDir)
	if err != nil {
		return nil, err
	}
	return s.Upload(ctx, container, filepath.Base(localPath), f, st.Size())
}
