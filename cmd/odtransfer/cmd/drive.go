// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <remote-path>",
	Short: "Create a folder path, reusing the segments that already exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newDriveService(cmd.Context())
		if err != nil {
			return err
		}
		ref, err := svc.Resolve(cmd.Context(), drive.ParseRemotePath(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ref.ID)
		return nil
	},
}

var putLink bool

var putCmd = &cobra.Command{
	Use:   "put <local-file> <remote-dir>",
	Short: "Upload one file into a folder path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newDriveService(cmd.Context())
		if err != nil {
			return err
		}
		item, err := svc.UploadFile(cmd.Context(), drive.ParseRemotePath(args[1]), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\t%s\t%d\n", item.ID, item.Name, item.Size)
		if !putLink {
			return nil
		}
		perm, err := svc.CreateLink(cmd.Context(), item.ID, drive.AnonymousView)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, drive.DownloadURL(perm.Link.WebURL))
		return nil
	},
}

var linkRaw bool

var linkCmd = &cobra.Command{
	Use:   "link <item-id>",
	Short: "Create an anonymous view link for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newDriveService(cmd.Context())
		if err != nil {
			return err
		}
		perm, err := svc.CreateLink(cmd.Context(), args[0], drive.AnonymousView)
		if err != nil {
			return err
		}
		if linkRaw {
			fmt.Fprintln(cmd.OutOrStdout(), perm.Link.WebURL)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), drive.DownloadURL(perm.Link.WebURL))
		}
		return nil
	},
}

func init() {
	putCmd.Flags().BoolVar(&putLink, "link", false, "also print a download link")
	linkCmd.Flags().BoolVar(&linkRaw, "raw", false, "print the sharing link instead of the download link")
}
