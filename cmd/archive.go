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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lookbackYears int

// archiveCmd represents the archive command. It is the copy command restricted
// to recovery points completed on the first day of a month, for keeping
// long-lived monthly archives.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy first-of-month recovery points into an archive vault.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := copyCmdConfig(cmd.PersistentFlags())
		cfg.FirstOfMonth = true
		if !cmd.PersistentFlags().Changed("lookback-years") {
			lookbackYears = viper.GetInt("lookback_years")
		}
		cfg.LookbackYears = lookbackYears
		runCopy(cfg)
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	addCopyFlags(archiveCmd)
	archiveCmd.PersistentFlags().IntVar(&lookbackYears, "lookback-years", 0, "how many years of first-of-month dates to consider")
}
