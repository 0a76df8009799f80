// This file is part of backup-janitor
//
// Copyright (C) 2026  VaultOps
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

var (
	sourceVault    string
	destVault      string
	resourceFilter string
	coldDays       int
	deleteDays     int
)

// copyCmdConfig resolves the copy job configuration from flags and
// environment. Day thresholds fall back to the environment only when the flag
// was not given, so an explicit negative value reaches validation instead of
// being silently replaced.
func copyCmdConfig(flags *pflag.FlagSet) janitor.CopyConfig {
	if sourceVault == "" {
		sourceVault = viper.GetString("source_vault_name")
	}
	if destVault == "" {
		destVault = viper.GetString("destination_vault_name")
	}
	if resourceFilter == "" {
		resourceFilter = viper.GetString("resource_filter")
	}
	if !flags.Changed("cold-storage-after-days") {
		coldDays = viper.GetInt("cold_storage_after_days")
	}
	if !flags.Changed("delete-after-days") {
		deleteDays = viper.GetInt("delete_after_days")
	}
	return janitor.CopyConfig{
		SourceVaultName:            sourceVault,
		DestinationVaultName:       destVault,
		ResourceFilter:             resourceFilter,
		MoveToColdStorageAfterDays: coldDays,
		DeleteAfterDays:            deleteDays,
	}
}

func runCopy(cfg janitor.CopyConfig) {
	ctx := context.Background()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid copy configuration", zap.Error(err))
		os.Exit(1)
	}

	client, err := newBackupClient(ctx)
	if err != nil {
		logger.Error("failed to create backup client", zap.Error(err))
		os.Exit(1)
	}
	if _, err := janitor.New(client, logger).Copy(ctx, cfg); err != nil {
		logger.Error("copy run failed", zap.Error(err))
		os.Exit(1)
	}
}

// copyCmd represents the copy command
var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy matching recovery points into another vault with a new lifecycle.",
	Run: func(cmd *cobra.Command, args []string) {
		runCopy(copyCmdConfig(cmd.PersistentFlags()))
	},
}

func addCopyFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&sourceVault, "source-vault", "", "vault to copy recovery points from")
	cmd.PersistentFlags().StringVar(&destVault, "destination-vault", "", "vault to copy recovery points into")
	cmd.PersistentFlags().StringVar(&resourceFilter, "resource-filter", "", "only copy recovery points whose resource ARN contains this value")
	cmd.PersistentFlags().IntVar(&coldDays, "cold-storage-after-days", 0, "move copies to cold storage after this many days (0 disables)")
	cmd.PersistentFlags().IntVar(&deleteDays, "delete-after-days", 0, "delete copies after this many days (0 disables)")
}

func init() {
	rootCmd.AddCommand(copyCmd)
	addCopyFlags(copyCmd)
}
