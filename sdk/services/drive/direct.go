// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"go.uber.org/zap"
)

func contentPath(container NodeRef, name, action string) string {
	return fmt.Sprintf("%s:/%s:/%s", itemPath(container.ID), url.PathEscape(name), action)
}

// UploadDirect writes data as name inside container in one request.
func (s *DriveService) UploadDirect(ctx context.Context, container NodeRef, name string, data []byte) (*Item, error) {
	s.log.Debug("direct upload", zap.String("name", name), zap.Int("size", len(data)))

	resp, err := s.http.Put(ctx, contentPath(container, name, "content"), config.BytesBody(data), nil)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return decodeItem(resp, "upload "+name)
	default:
		return nil, unexpectedStatus("upload "+name, resp)
	}
}

func decodeItem(resp *config.Response, op string) (*Item, error) {
	var item Item
	if err := resp.DecodeJSON(&item); err != nil {
		return nil, ErrMalformedResponse.Wrap(fmt.Errorf("%s: %w", op, err))
	}
	if item.ID == "" {
		return nil, ErrMalformedResponse.New("%s: item without id", op)
	}
	return &item, nil
}
