// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

// DirectUploadLimit is the largest payload (exclusive) the content endpoint accepts
// in a single request.
const DirectUploadLimit = 4 * 1024 * 1024

type Strategy int

const (
	StrategyDirect Strategy = iota
	StrategyChunked
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyChunked:
		return "chunked"
	}
	return "unknown"
}

func ChooseStrategy(size int64) Strategy {
	if size < DirectUploadLimit {
		return StrategyDirect
	}
	return StrategyChunked
}
