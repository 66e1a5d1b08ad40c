// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"fmt"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"go.uber.org/zap"
)

type DriveService struct {
	http      config.CoreHTTP
	log       *zap.Logger
	chunkSize int64
}

func NewDriveService(_ context.Context, conf config.Config, log *zap.Logger) (*DriveService, error) {
	conf = conf.WithDefaults()
	if err := conf.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph config: %w", err)
	}
	if err := conf.Transfer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return NewDriveServiceWithHTTP(config.NewHTTPCore(nil, conf.Graph, log), conf.Transfer.ChunkSize, log), nil
}

// NewDriveServiceWithHTTP builds the service over an existing transport.
func NewDriveServiceWithHTTP(httpc config.CoreHTTP, chunkSize int64, log *zap.Logger) *DriveService {
	if log == nil {
		log = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &DriveService{http: httpc, log: log.Named("drive"), chunkSize: chunkSize}
}

// ChunkSize is the fragment size used by Upload for chunked transfers.
func (s *DriveService) ChunkSize() int64 {
	return s.chunkSize
}
