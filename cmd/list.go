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
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

var listRecoveryPointsHeaders = []string{"Recovery Point", "Resource", "Completed At", "Age"}

// listCmdConfig resolves the vault to list, failing fast when none is
// configured.
func listCmdConfig() (string, error) {
	if vaultName == "" {
		vaultName = viper.GetString("vault_name")
	}
	if vaultName == "" {
		return "", fmt.Errorf("vault_name: %w", janitor.ErrEmptyVaultName)
	}
	return vaultName, nil
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recovery points of a vault.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		vault, err := listCmdConfig()
		if err != nil {
			logger.Error("invalid list configuration", zap.Error(err))
			os.Exit(1)
		}

		client, err := newBackupClient(ctx)
		if err != nil {
			logger.Error("failed to create backup client", zap.Error(err))
			os.Exit(1)
		}

		now := time.Now().UTC()
		var data [][]string
		var token *string
		for {
			page, err := client.ListRecoveryPoints(ctx, vault, token)
			if err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}
			for _, rp := range page.RecoveryPoints {
				data = append(data, []string{
					rp.ARN,
					rp.ResourceARN,
					rp.CompletionTime.Format(time.RFC3339),
					humanize.RelTime(rp.CompletionTime, now, "old", "from now"),
				})
			}
			if page.NextToken == nil {
				break
			}
			token = page.NextToken
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(listRecoveryPointsHeaders)
		table.AppendBulk(data)
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.PersistentFlags().StringVar(&vaultName, "vault", "", "backup vault to list")
}
