// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"go.uber.org/zap"
)

// ParseRemotePath splits a slash-delimited path. Empty segments are dropped.
func ParseRemotePath(p string) RemotePath {
	var out RemotePath
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Join returns a new path with the extra segments appended.
func (p RemotePath) Join(segments ...string) RemotePath {
	out := make(RemotePath, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, ParseRemotePath(strings.Join(segments, "/"))...)
}

func joinSegments(segments []string) string {
	return strings.Join(segments, "/")
}

func escapePath(segments []string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return strings.Join(escaped, "/")
}

func itemPath(id string) string {
	return "items/" + url.PathEscape(id)
}

// Resolve walks path from the drive root, creating any missing folder, and returns a
// reference to the last segment. Existing folders are never modified, so resolving the
// same path again returns the same id without creating anything.
func (s *DriveService) Resolve(ctx context.Context, path RemotePath) (NodeRef, error) {
	current := rootRef
	walked := make([]string, 0, len(path))

	for _, seg := range path {
		if seg == "" {
			continue
		}
		walked = append(walked, seg)

		item, err := s.lookup(ctx, walked)
		switch {
		case err == nil:
			current = NodeRef{ID: item.ID}
		case ErrNotFound.Has(err):
			ref, err := s.createFolder(ctx, current.ID, seg, walked)
			if err != nil {
				return NodeRef{}, fmt.Errorf("resolve %q: segment %q: %w", path, seg, err)
			}
			current = ref
		default:
			return NodeRef{}, fmt.Errorf("resolve %q: segment %q: %w", path, seg, err)
		}
	}
	return current, nil
}

// Lookup returns the item at path, or an ErrNotFound error.
func (s *DriveService) Lookup(ctx context.Context, path RemotePath) (*Item, error) {
	if len(path) == 0 {
		return &Item{ID: RootID, Name: RootID, Folder: &Folder{}}, nil
	}
	return s.lookup(ctx, path)
}

func (s *DriveService) lookup(ctx context.Context, segments []string) (*Item, error) {
	resp, err := s.http.Get(ctx, "root:/"+escapePath(segments))
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", joinSegments(segments), err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var item Item
		if err := resp.DecodeJSON(&item); err != nil {
			return nil, ErrMalformedResponse.Wrap(err)
		}
		if item.ID == "" {
			return nil, ErrMalformedResponse.New("lookup %q: item without id", joinSegments(segments))
		}
		if item.Folder == nil && item.File != nil {
			return nil, ErrNotFolder.New("%q", joinSegments(segments))
		}
		s.log.Debug("folder exists", zap.String("path", joinSegments(segments)), zap.String("id", item.ID))
		return &item, nil
	case http.StatusNotFound:
		return nil, ErrNotFound.New("%q", joinSegments(segments))
	default:
		return nil, unexpectedStatus("lookup "+joinSegments(segments), resp)
	}
}

func (s *DriveService) createFolder(ctx context.Context, parentID, name string, walked []string) (NodeRef, error) {
	s.log.Info("creating folder", zap.String("path", joinSegments(walked)))

	resp, err := s.http.Post(ctx, itemPath(parentID)+"/children", config.JSONBody{Value: createFolderRequest{
		Name:             name,
		ConflictBehavior: "replace",
	}})
	if err != nil {
		return NodeRef{}, fmt.Errorf("create folder %q: %w", name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var item Item
		if err := resp.DecodeJSON(&item); err != nil {
			return NodeRef{}, ErrMalformedResponse.Wrap(err)
		}
		if item.ID == "" {
			return NodeRef{}, ErrMalformedResponse.New("create folder %q: item without id", name)
		}
		return NodeRef{ID: item.ID, Created: true}, nil
	case http.StatusConflict:
		// someone else created it between our lookup and create: adopt theirs
		s.log.Debug("folder created concurrently", zap.String("path", joinSegments(walked)))
		item, err := s.lookup(ctx, walked)
		if err != nil {
			return NodeRef{}, fmt.Errorf("adopt concurrently created folder: %w", err)
		}
		return NodeRef{ID: item.ID}, nil
	default:
		return NodeRef{}, unexpectedStatus("create folder "+name, resp)
	}
}
