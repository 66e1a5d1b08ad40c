// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"go.uber.org/zap"
)

const cancelTimeout = 30 * time.Second

// Partition splits [0, total) into consecutive ranges of at most chunkSize bytes.
func Partition(total, chunkSize int64) ([]ChunkDescriptor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if total < 0 {
		return nil, fmt.Errorf("total size must not be negative, got %d", total)
	}

	chunks := make([]ChunkDescriptor, 0, (total+chunkSize-1)/chunkSize)
	for start, i := int64(0), 0; start < total; start, i = start+chunkSize, i+1 {
		end := min(start+chunkSize-1, total-1)
		chunks = append(chunks, ChunkDescriptor{
			Index:  i,
			Start:  start,
			End:    end,
			Length: end - start + 1,
		})
	}
	return chunks, nil
}

// UploadChunked transfers size bytes of src through an upload session, one chunk at a
// time and in order. The transfer ends at the first finalizing response; running out of
// chunks without one is an error.
func (s *DriveService) UploadChunked(ctx context.Context, container NodeRef, name string, src io.ReaderAt, size, chunkSize int64) (item *Item, err error) {
	chunks, err := Partition(size, chunkSize)
	if err != nil {
		return nil, err
	}

	session, err := s.openSession(ctx, container, name)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("name", name))
	log.Debug("upload session opened", zap.Int("chunks", len(chunks)), zap.Int64("size", size))

	defer func() {
		if err != nil {
			s.cancelSession(ctx, session.UploadURL, err)
		}
	}()

	buf := make([]byte, min(chunkSize, size))
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("upload %q aborted before chunk %d: %w", name, c.Index, err)
		}

		log.Debug("uploading chunk", zap.Int("index", c.Index), zap.Int64("start", c.Start), zap.Int64("end", c.End))
		item, done, err := s.sendChunk(ctx, session.UploadURL, src, c, size, buf)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", name, err)
		}
		if done {
			if c.Index != len(chunks)-1 {
				log.Warn("session finalized before last chunk", zap.Int("index", c.Index), zap.Int("chunks", len(chunks)))
			}
			return item, nil
		}
	}

	return nil, ErrSessionExhausted.New("upload %q: %d chunks sent without a finalizing response", name, len(chunks))
}

func (s *DriveService) openSession(ctx context.Context, container NodeRef, name string) (*uploadSession, error) {
	body := map[string]any{
		"item": map[string]any{
			"@microsoft.graph.conflictBehavior": "replace",
			"name":                              name,
		},
	}
	resp, err := s.http.Post(ctx, contentPath(container, name, "createUploadSession"), config.JSONBody{Value: body})
	if err != nil {
		return nil, fmt.Errorf("create upload session %q: %w", name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return nil, unexpectedStatus("create upload session "+name, resp)
	}

	var session uploadSession
	if err := resp.DecodeJSON(&session); err != nil {
		return nil, ErrMalformedResponse.Wrap(err)
	}
	if session.UploadURL == "" {
		return nil, ErrMalformedResponse.New("create upload session %q: no uploadUrl", name)
	}
	return &session, nil
}

// sendChunk reports done when the response finalized the object.
func (s *DriveService) sendChunk(ctx context.Context, uploadURL string, src io.ReaderAt, c ChunkDescriptor, total int64, buf []byte) (*Item, bool, error) {
	if c.Length <= 0 || c.Length != c.End-c.Start+1 || c.Start < 0 || c.End >= total {
		return nil, false, ErrRangeMismatch.New("chunk %d declares %d bytes for range %d-%d/%d", c.Index, c.Length, c.Start, c.End, total)
	}
	if int64(cap(buf)) < c.Length {
		buf = make([]byte, c.Length)
	}
	data := buf[:c.Length]

	n, err := src.ReadAt(data, c.Start)
	if int64(n) != c.Length {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, false, ErrRangeMismatch.New("chunk %d: read %d of %d bytes at offset %d", c.Index, n, c.Length, c.Start)
		}
		return nil, false, fmt.Errorf("read chunk %d: %w", c.Index, err)
	}

	header := http.Header{}
	header.Set("Content-Length", strconv.FormatInt(c.Length, 10))
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", c.Start, c.End, total))

	resp, err := s.http.Put(ctx, uploadURL, config.BytesBody(data), header)
	if err != nil {
		return nil, false, fmt.Errorf("chunk %d: %w", c.Index, err)
	}

	op := fmt.Sprintf("chunk %d (bytes %d-%d/%d)", c.Index, c.Start, c.End, total)
	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil, false, nil
	case http.StatusOK, http.StatusCreated:
		item, err := decodeItem(resp, op)
		return item, true, err
	default:
		return nil, false, unexpectedStatus(op, resp)
	}
}

// cancelSession releases an abandoned session. Failure only gets logged.
func (s *DriveService) cancelSession(ctx context.Context, uploadURL string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	s.log.Debug("cancelling upload session", zap.NamedError("cause", cause))
	resp, err := s.http.Delete(ctx, uploadURL)
	if err != nil {
		s.log.Warn("failed to cancel upload session", zap.Error(err))
		return
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		s.log.Warn("failed to cancel upload session", zap.Int("status", resp.StatusCode))
	}
}
