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
	"fmt"
	"net/http"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/vaultops/backup-janitor/pkg/janitor"
	"github.com/vaultops/backup-janitor/pkg/server"
)

var scheduleFile string

// scheduleConfig is the YAML schedule file: one cron entry per lifecycle job.
type scheduleConfig struct {
	Addr string          `yaml:"addr"`
	Jobs []scheduleEntry `yaml:"jobs"`
}

type scheduleEntry struct {
	Name            string `yaml:"name"`
	SchedulePattern string `yaml:"schedule_pattern"`
	Job             string `yaml:"job"`

	// cleanup settings. ExpiryDays is a pointer so an absent value is
	// distinguishable from an explicit 0 ("expire everything").
	Vault      string `yaml:"vault"`
	ExpiryDays *int   `yaml:"expiry_days"`

	// copy and archive settings
	SourceVault          string `yaml:"source_vault"`
	DestinationVault     string `yaml:"destination_vault"`
	ResourceFilter       string `yaml:"resource_filter"`
	ColdStorageAfterDays int    `yaml:"cold_storage_after_days"`
	DeleteAfterDays      int    `yaml:"delete_after_days"`
	LookbackYears        int    `yaml:"lookback_years"`
}

func parseScheduleConfig(buf []byte) (*scheduleConfig, error) {
	var cfg scheduleConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse schedule file: %w", err)
	}
	if len(cfg.Jobs) == 0 {
		return nil, errors.New("schedule file defines no jobs")
	}
	seen := make(map[string]struct{}, len(cfg.Jobs))
	for _, e := range cfg.Jobs {
		if e.Name == "" {
			return nil, errors.New("schedule entry without a name")
		}
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("duplicate schedule entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.SchedulePattern == "" {
			return nil, fmt.Errorf("schedule entry %q without a schedule_pattern", e.Name)
		}
	}
	return &cfg, nil
}

// jobFunc turns one schedule entry into a runnable job.
func jobFunc(runner *janitor.Runner, e scheduleEntry) (server.JobFunc, error) {
	switch e.Job {
	case "cleanup":
		if e.ExpiryDays == nil {
			return nil, fmt.Errorf("schedule entry %q: %w", e.Name, errExpiryDaysNotSet)
		}
		cfg := janitor.CleanupConfig{VaultName: e.Vault, ExpiryDays: *e.ExpiryDays}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", e.Name, err)
		}
		return func(ctx context.Context) (*janitor.Summary, error) {
			return runner.Cleanup(ctx, cfg)
		}, nil
	case "copy", "archive":
		cfg := janitor.CopyConfig{
			SourceVaultName:            e.SourceVault,
			DestinationVaultName:       e.DestinationVault,
			ResourceFilter:             e.ResourceFilter,
			MoveToColdStorageAfterDays: e.ColdStorageAfterDays,
			DeleteAfterDays:            e.DeleteAfterDays,
			FirstOfMonth:               e.Job == "archive",
			LookbackYears:              e.LookbackYears,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", e.Name, err)
		}
		return func(ctx context.Context) (*janitor.Summary, error) {
			return runner.Copy(ctx, cfg)
		}, nil
	default:
		return nil, fmt.Errorf("schedule entry %q: unknown job kind %q", e.Name, e.Job)
	}
}

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run lifecycle jobs on a recurring schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		buf, err := os.ReadFile(scheduleFile)
		if err != nil {
			logger.Error("failed to read schedule file", zap.Error(err))
			os.Exit(1)
		}
		cfg, err := parseScheduleConfig(buf)
		if err != nil {
			logger.Error("invalid schedule file", zap.Error(err))
			os.Exit(1)
		}

		client, err := newBackupClient(ctx)
		if err != nil {
			logger.Error("failed to create backup client", zap.Error(err))
			os.Exit(1)
		}
		runner := janitor.New(client, logger)

		addr := cfg.Addr
		if addr == "" {
			addr = viper.GetString("addr")
		}
		opts := []server.Option{server.WithAddr(addr), server.WithLogger(logger)}
		for _, e := range cfg.Jobs {
			job, err := jobFunc(runner, e)
			if err != nil {
				logger.Error("invalid schedule entry", zap.Error(err))
				os.Exit(1)
			}
			opts = append(opts, server.WithJob(e.Name, job))
		}
		s, err := server.New(opts...)
		if err != nil {
			logger.Error("failed to create status server", zap.Error(err))
			os.Exit(1)
		}

		c := cron.New()
		for _, e := range cfg.Jobs {
			e := e
			if _, err := c.AddFunc(e.SchedulePattern, func() {
				_, _ = s.RunJob(context.Background(), e.Name)
			}); err != nil {
				logger.Error("invalid schedule pattern", zap.String("job", e.Name), zap.Error(err))
				os.Exit(1)
			}
			logger.Info("scheduled job", zap.String("job", e.Name), zap.String("pattern", e.SchedulePattern))
		}

		done := make(chan struct{})
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(done)
			if err := s.Run(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			c.Start()
			select {
			case <-gctx.Done():
			case <-done:
			}
			<-c.Stop().Done()
			return nil
		})
		if err := g.Wait(); err != nil {
			logger.Error("schedule run failed", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.PersistentFlags().StringVar(&scheduleFile, "schedule-file", "schedule.yaml", "YAML file defining the scheduled jobs")
}
