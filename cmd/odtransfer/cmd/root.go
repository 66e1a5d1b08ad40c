// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd holds the odtransfer command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/drive"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/services/transfer"
	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	envName     string
	verbose     bool
	log         = zap.NewNop()
	loggerReady bool

	rootCmd = &cobra.Command{
		Use:           "odtransfer",
		Short:         "Publish simulation results to OneDrive",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := utils.NewLogger(verbose)
			if err != nil {
				return err
			}
			log = l
			loggerReady = true
			if err := utils.RegisterIniCfgWithViper(log, envName); err != nil {
				return err
			}
			utils.DumpSettings(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envName, "env", "", "environment section of the INI file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every request")
	pf.String("token", "", "bearer token for the drive API (default from GRAPH_ACCESS_TOKEN)")
	pf.Int64("chunk-size", 0, "upload session fragment size in bytes, a multiple of 327680")
	_ = viper.BindPFlag(utils.GraphAccessToken, pf.Lookup("token"))
	_ = viper.BindPFlag(utils.TransferChunkSize, pf.Lookup("chunk-size"))

	rootCmd.AddCommand(publishCmd, mkdirCmd, putCmd, linkCmd, configCmd)
}

// Execute runs the command tree and reports the error, if any, through the logger.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if loggerReady {
			log.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}

func newTransferService(ctx context.Context) (*transfer.TransferService, error) {
	return transfer.NewTransferService(ctx, utils.LoadConfig(), log)
}

func newDriveService(ctx context.Context) (*drive.DriveService, error) {
	return drive.NewDriveService(ctx, utils.LoadConfig(), log)
}
