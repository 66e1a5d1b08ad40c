// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or persist the active settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active settings, secrets masked",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "[%s]\n", viper.GetString(utils.CurrentEnvironment))
		for _, kv := range utils.SettingsDump() {
			fmt.Fprintf(out, "%s = %s\n", kv[0], kv[1])
		}
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the active settings into the INI profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return utils.SaveCurrentEnvironment()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSaveCmd)
}
