// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Progress tracks files and bytes published across concurrent workers and
// reports them through the logger.
type Progress struct {
	mu         sync.Mutex
	log        *zap.Logger
	totalFiles int
	totalBytes int64
	doneFiles  int
	doneBytes  int64
	lastTick   time.Time
}

func NewProgress(log *zap.Logger, totalFiles int, totalBytes int64) *Progress {
	if log == nil {
		log = zap.NewNop()
	}
	return &Progress{log: log, totalFiles: totalFiles, totalBytes: totalBytes}
}

// Add records one finished file of the given size.
func (p *Progress) Add(size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doneFiles++
	p.doneBytes += size
	if p.doneBytes > p.totalBytes {
		p.doneBytes = p.totalBytes
	}
	p.render(p.doneFiles == p.totalFiles)
}

// Done returns the number of files and bytes recorded so far.
func (p *Progress) Done() (int, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneFiles, p.doneBytes
}

func (p *Progress) render(force bool) {
	// throttling: at most one line per second unless forced
	if !force && time.Since(p.lastTick) < time.Second {
		return
	}
	p.lastTick = time.Now()

	pct := 100.0
	if p.totalBytes > 0 {
		pct = float64(p.doneBytes) / float64(p.totalBytes) * 100
	}
	p.log.Info("progress",
		zap.String("files", fmt.Sprintf("%d/%d", p.doneFiles, p.totalFiles)),
		zap.String("bytes", fmt.Sprintf("%s / %s", HumanSize(p.doneBytes), HumanSize(p.totalBytes))),
		zap.String("percent", fmt.Sprintf("%.2f%%", pct)),
	)
}

func HumanSize(n int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
