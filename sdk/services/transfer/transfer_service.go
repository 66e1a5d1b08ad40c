// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"go.uber.org/zap"
)

type TransferService struct {
	drive   *drive.DriveService
	s3      *config.S3Client
	s3Conf  config.S3Config
	workers int
	log     *zap.Logger
	now     func() time.Time
}

func NewTransferService(ctx context.Context, conf config.Config, log *zap.Logger) (*TransferService, error) {
	conf = conf.WithDefaults()
	d, err := drive.NewDriveService(ctx, conf, log)
	if err != nil {
		return nil, err
	}
	s := NewTransferServiceWithDrive(d, conf.Transfer.Workers, log)

	// the manifest mirror is optional
	if conf.S3.Bucket != "" {
		s3c, err := config.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, fmt.Errorf("S3 init failed: %w", err)
		}
		s.s3 = s3c
		s.s3Conf = conf.S3
	}
	return s, nil
}

// NewTransferServiceWithDrive builds a service without the S3 mirror.
func NewTransferServiceWithDrive(d *drive.DriveService, workers int, log *zap.Logger) *TransferService {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = config.DefaultWorkers
	}
	return &TransferService{
		drive:   d,
		workers: workers,
		log:     log.Named("transfer"),
		now:     time.Now,
	}
}

func (s *TransferService) Drive() *drive.DriveService {
	return s.drive
}
