// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"fmt"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/zeebo/errs"
)

var (
	// ErrNotFound is a lookup miss.
	ErrNotFound = errs.Class("not found")
	// ErrNotFolder means a path segment resolved to a file.
	ErrNotFolder = errs.Class("not a folder")
	// ErrMalformedResponse means a response lacked a field the protocol requires.
	ErrMalformedResponse = errs.Class("malformed response")
	// ErrUnexpectedStatus wraps a *StatusError for a status outside the handled set.
	ErrUnexpectedStatus = errs.Class("unexpected status")
	// ErrRangeMismatch means a chunk's declared length disagrees with its byte range.
	ErrRangeMismatch = errs.Class("range mismatch")
	// ErrSessionExhausted means every chunk was sent without a finalizing response.
	ErrSessionExhausted = errs.Class("upload session exhausted")
)

// StatusError records the step and HTTP status that failed.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d (%s)", e.Op, e.Status, e.Message)
}

func unexpectedStatus(op string, resp *config.Response) error {
	return ErrUnexpectedStatus.Wrap(&StatusError{
		Op:      op,
		Status:  resp.StatusCode,
		Message: resp.Message(),
	})
}
