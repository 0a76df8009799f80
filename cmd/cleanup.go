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
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

var (
	vaultName  string
	expiryDays int
)

// errExpiryDaysNotSet indicates a cleanup run without a configured retention
// threshold.
var errExpiryDaysNotSet = errors.New("expiry_days is not configured")

// cleanupCmdConfig resolves the cleanup configuration from flags and
// environment. expiry_days has no safe default: 0 means "expire everything",
// so an absent value is a startup error rather than an implicit 0.
func cleanupCmdConfig() (janitor.CleanupConfig, error) {
	if vaultName == "" {
		vaultName = viper.GetString("vault_name")
	}
	if !cleanupCmd.PersistentFlags().Changed("expiry-days") {
		if !viper.IsSet("expiry_days") {
			return janitor.CleanupConfig{}, errExpiryDaysNotSet
		}
		expiryDays = viper.GetInt("expiry_days")
	}
	cfg := janitor.CleanupConfig{VaultName: vaultName, ExpiryDays: expiryDays}
	if err := cfg.Validate(); err != nil {
		return janitor.CleanupConfig{}, err
	}
	return cfg, nil
}

// cleanupCmd represents the cleanup command. It is assigned in init rather
// than at declaration because cleanupCmdConfig refers back to it.
var cleanupCmd *cobra.Command

func init() {
	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete recovery points older than the retention threshold.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cfg, err := cleanupCmdConfig()
			if err != nil {
				logger.Error("invalid cleanup configuration", zap.Error(err))
				os.Exit(1)
			}

			client, err := newBackupClient(ctx)
			if err != nil {
				logger.Error("failed to create backup client", zap.Error(err))
				os.Exit(1)
			}
			if _, err := janitor.New(client, logger).Cleanup(ctx, cfg); err != nil {
				logger.Error("cleanup run failed", zap.Error(err))
				os.Exit(1)
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.PersistentFlags().StringVar(&vaultName, "vault", "", "backup vault to clean up")
	cleanupCmd.PersistentFlags().IntVar(&expiryDays, "expiry-days", 0, "delete recovery points older than this many days")
}
