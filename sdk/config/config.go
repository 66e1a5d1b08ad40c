// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBaseURL    = "https://graph.microsoft.com/v1.0"
	DefaultDrivePath  = "/me/drive"
	DefaultChunkSize  = 10 * 1024 * 1024
	DefaultWorkers    = 4
	DefaultMaxRetries = 2
	DefaultTimeout    = 5 * time.Minute
	DefaultRetryDelay = 500 * time.Millisecond

	// upload session fragments must be a multiple of this size
	ChunkSizeMultiple = 320 * 1024
	MaxChunkSize      = 60 * 1024 * 1024
)

// Config is the whole configuration handed to the SDK services (no viper/INI here)
type Config struct {
	Graph    GraphConfig
	Transfer TransferConfig
	S3       S3Config
}

type GraphConfig struct {
	BaseURL     string
	DrivePath   string
	AccessToken string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

type TransferConfig struct {
	ChunkSize int64
	Workers   int
}

// S3Config is optional: an empty Bucket disables the manifest mirror.
type S3Config struct {
	AccessKey   string
	SecretKey   string
	AccessToken string
	Region      string
	EndpointURL string
	Bucket      string
	Key         string
}

// WithDefaults fills unset values.
func (c Config) WithDefaults() Config {
	if c.Graph.BaseURL == "" {
		c.Graph.BaseURL = DefaultBaseURL
	}
	if c.Graph.DrivePath == "" {
		c.Graph.DrivePath = DefaultDrivePath
	}
	if c.Graph.MaxRetries < 0 {
		c.Graph.MaxRetries = 0
	}
	if c.Graph.RetryDelay <= 0 {
		c.Graph.RetryDelay = DefaultRetryDelay
	}
	if c.Graph.Timeout == 0 {
		c.Graph.Timeout = DefaultTimeout
	}
	if c.Transfer.ChunkSize == 0 {
		c.Transfer.ChunkSize = DefaultChunkSize
	}
	if c.Transfer.Workers == 0 {
		c.Transfer.Workers = DefaultWorkers
	}
	return c
}

func (g GraphConfig) Validate() error {
	if g.BaseURL == "" {
		return errors.New("graph base url is required")
	}
	if g.AccessToken == "" {
		return errors.New("graph access token is required")
	}
	return nil
}

func (t TransferConfig) Validate() error {
	switch {
	case t.ChunkSize <= 0:
		return fmt.Errorf("chunk size must be positive, got %d", t.ChunkSize)
	case t.ChunkSize%ChunkSizeMultiple != 0:
		return fmt.Errorf("chunk size %d is not a multiple of %d", t.ChunkSize, ChunkSizeMultiple)
	case t.ChunkSize > MaxChunkSize:
		return fmt.Errorf("chunk size %d exceeds %d", t.ChunkSize, MaxChunkSize)
	case t.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", t.Workers)
	}
	return nil
}
