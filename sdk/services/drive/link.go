// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
)

// AnonymousView is a read-only link that works without signing in.
var AnonymousView = LinkOptions{Type: "view", Scope: "anonymous"}

func (s *DriveService) CreateLink(ctx context.Context, itemID string, opts LinkOptions) (*Permission, error) {
	if itemID == "" {
		return nil, fmt.Errorf("item id is required")
	}
	resp, err := s.http.Post(ctx, itemPath(itemID)+"/createLink", config.JSONBody{Value: opts})
	if err != nil {
		return nil, fmt.Errorf("create link for %s: %w", itemID, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return nil, unexpectedStatus("create link for "+itemID, resp)
	}

	var perm Permission
	if err := resp.DecodeJSON(&perm); err != nil {
		return nil, ErrMalformedResponse.Wrap(err)
	}
	if perm.Link.WebURL == "" {
		return nil, ErrMalformedResponse.New("create link for %s: no webUrl", itemID)
	}
	return &perm, nil
}

// DownloadURL turns a sharing link into a direct download link.
func DownloadURL(webURL string) string {
	if strings.Contains(webURL, "?") {
		return webURL + "&download=1"
	}
	return webURL + "?download=1"
}
