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

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/backupapi"
	"github.com/vaultops/backup-janitor/pkg/policy"
)

const (
	envPrefix         = "BACKUP_JANITOR"
	defaultStatusAddr = "127.0.0.1:9001"
)

var (
	cfgFile string
	debug   bool
	logger  *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backup-janitor",
	Short: "AWS Backup vault janitor.",
	Long:  `backup-janitor automates recovery point lifecycle management across AWS Backup vaults: expiring old recovery points and copying selected ones into another vault with a new lifecycle.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			fmt.Println(err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if debug {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.backup-janitor.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug (default is false)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	newLogger := zap.NewProduction
	if debug {
		newLogger = zap.NewDevelopment
	}
	var err error
	if logger, err = newLogger(); err != nil {
		panic(err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}

		// Search config in home directory with name ".backup-janitor" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".backup-janitor")
	}

	// Set default value for config
	viper.SetDefault("addr", defaultStatusAddr)
	viper.SetDefault("lookback_years", policy.DefaultLookbackYears)

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Info("Using config file: " + viper.ConfigFileUsed())
	}
}

// newBackupClient builds the AWS Backup client from the loaded configuration.
func newBackupClient(ctx context.Context) (*backupapi.Client, error) {
	opts := []backupapi.ClientOption{backupapi.WithLogger(logger)}
	if region := viper.GetString("region"); region != "" {
		opts = append(opts, backupapi.WithRegion(region))
	}
	if roleARN := viper.GetString("role_arn"); roleARN != "" {
		opts = append(opts, backupapi.WithRoleARN(roleARN))
	}
	accessKey := viper.GetString("access_key")
	secretKey := viper.GetString("secret_key")
	if accessKey != "" || secretKey != "" {
		opts = append(opts, backupapi.WithStaticCredentials(accessKey, secretKey))
	}
	return backupapi.NewClient(ctx, opts...)
}
