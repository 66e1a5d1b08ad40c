// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/transfer"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultOutput = "onedrive_sharing_links.json"

var publishReq transfer.PublishRequest

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload simulation files and write the sharing link manifest",
	Example: `  odtransfer publish --base-dir results --onedrive-dir Models/v2 --model-version v2
  odtransfer publish --base-dir results --onedrive-dir Models/v2 --locations C.12580 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !publishReq.DryRun && publishReq.RemoteDir == "" {
			return errors.New("--onedrive-dir is required")
		}

		var (
			svc *transfer.TransferService
			err error
		)
		if publishReq.DryRun {
			// a dry run never touches the network, so no credentials are needed
			svc = transfer.NewTransferServiceWithDrive(nil, viper.GetInt(utils.TransferWorkers), log)
		} else if svc, err = newTransferService(cmd.Context()); err != nil {
			return err
		}

		res, err := svc.Publish(cmd.Context(), publishReq)
		if res != nil {
			printSummary(cmd, res)
		}
		if err != nil {
			return err
		}
		if len(res.Failures) > 0 {
			return fmt.Errorf("%d of %d files could not be published", len(res.Failures), len(res.Files))
		}
		return nil
	},
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&publishReq.BaseDir, "base-dir", "", "base directory containing simulation files")
	f.StringVar(&publishReq.RemoteDir, "onedrive-dir", "", "OneDrive directory to store files")
	f.StringVar(&publishReq.ModelVersion, "model-version", "", "model version recorded in the manifest")
	f.StringVar(&publishReq.Output, "output", defaultOutput, "manifest file (.json, .yaml or .yml)")
	f.StringSliceVar(&publishReq.Locations, "locations", nil, "only these locations (e.g. C.12580)")
	f.StringSliceVar(&publishReq.Scenarios, "scenarios", nil, "only these scenarios (e.g. permanent_loss)")
	f.StringVar(&publishReq.Extension, "extension", transfer.DefaultExtension, "simulation file extension")
	f.BoolVar(&publishReq.DryRun, "dry-run", false, "print actions without performing them")
	f.BoolVar(&publishReq.NoLinks, "no-links", false, "upload without creating sharing links")
	f.BoolVar(&publishReq.SkipExisting, "skip-existing", false, "skip files already present in the output manifest")
	f.Int("workers", 0, "locations published in parallel")
	_ = viper.BindPFlag(utils.TransferWorkers, f.Lookup("workers"))
	_ = publishCmd.MarkFlagRequired("base-dir")
}

func printSummary(cmd *cobra.Command, res *transfer.PublishResult) {
	out := cmd.OutOrStdout()
	if publishReq.DryRun {
		fmt.Fprintln(out, "DRY RUN MODE - no uploads or link generation")
		for _, f := range res.Files {
			fmt.Fprintf(out, "Would process: %s (%s)\n", f.RelativePath, utils.HumanSize(f.Size))
		}
		return
	}

	for _, f := range res.Failures {
		if f.Scenario == "" {
			fmt.Fprintf(out, "Failed location %s: %v\n", f.Location, f.Err)
		} else {
			fmt.Fprintf(out, "Failed %s/%s: %v\n", f.Location, f.Scenario, f.Err)
		}
	}
	if publishReq.Output != "" && len(res.Files) > 0 {
		fmt.Fprintf(out, "Sharing links saved to: %s\n", publishReq.Output)
	}
	if res.ManifestLocation != "" {
		fmt.Fprintf(out, "Manifest mirrored to: %s\n", res.ManifestLocation)
	}
	fmt.Fprintf(out, "Published: %d, skipped: %d, failed: %d, manifest entries: %d\n",
		res.Published, res.Skipped, len(res.Failures), res.Manifest.Len())
}
